package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"fetchname/internal/download"
	"fetchname/internal/utils"
)

// progressPrinter renders download.Progress updates as one inline line.
type progressPrinter struct {
	w           io.Writer
	start       time.Time
	lastPercent int
	lastPrint   time.Time
	inline      bool
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w, start: time.Now(), lastPercent: -1}
}

func (p *progressPrinter) update(m download.Progress) {
	percent := 0
	if m.Total > 0 {
		percent = int(float64(m.Downloaded) * 100 / float64(m.Total))
	}
	now := time.Now()
	if !m.Done && percent == p.lastPercent && now.Sub(p.lastPrint) < 750*time.Millisecond {
		return
	}
	p.lastPercent = percent
	p.lastPrint = now

	elapsed := now.Sub(p.start)
	speed := 0.0
	if elapsed > 0 {
		speed = float64(m.Downloaded) / elapsed.Seconds()
	}
	eta := formatETA(m.Total, m.Downloaded, speed)
	if m.Done {
		eta = "00:00"
	}

	fmt.Fprintf(p.w, "\r%s", formatProgressLine(m.Filename, m.ID, m.Downloaded, m.Total, speed, eta))
	p.inline = true
	if m.Done {
		p.finish()
	}
}

// finish ends the inline line, if one is open.
func (p *progressPrinter) finish() {
	if !p.inline {
		return
	}
	fmt.Fprint(p.w, "\n")
	p.inline = false
}

func formatProgressLine(filename string, id string, downloaded int64, total int64, speed float64, etaLabel string) string {
	short := shortID(id)
	speedLabel := formatSpeed(speed)
	if total <= 0 {
		return fmt.Sprintf("%s [%s] %s %s", filename, short, utils.ConvertBytesToHumanReadable(downloaded), speedLabel)
	}
	percent := float64(downloaded) * 100 / float64(total)
	bar := renderProgressBar(percent, 24)
	return fmt.Sprintf("%s [%s] |%s| %5.1f%% %s ETA %s", filename, short, bar, percent, speedLabel, etaLabel)
}

func renderProgressBar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	fill := int(percent * float64(width) / 100)
	return strings.Repeat("#", fill) + strings.Repeat("-", width-fill)
}

func formatSpeed(speed float64) string {
	if speed <= 0 {
		return "0 B/s"
	}
	return fmt.Sprintf("%s/s", utils.ConvertBytesToHumanReadable(int64(speed)))
}

func formatETA(total int64, downloaded int64, speed float64) string {
	if total <= 0 || speed <= 0 || downloaded >= total {
		return "--:--"
	}
	seconds := int64(float64(total-downloaded)/speed + 0.5)
	if seconds < 60 {
		return fmt.Sprintf("00:%02d", seconds)
	}
	if seconds < 3600 {
		return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

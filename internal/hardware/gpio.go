package hardware

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const gpioRoot = "/sys/class/gpio"

// GPIOLine reads a pin through the sysfs GPIO interface. The coin acceptor
// pulls the line low for each accepted coin; the pin idles high through
// its pull-up.
type GPIOLine struct {
	pin       int
	valuePath string
}

func NewGPIOLine(pin int) *GPIOLine {
	return &GPIOLine{
		pin:       pin,
		valuePath: filepath.Join(gpioRoot, fmt.Sprintf("gpio%d", pin), "value"),
	}
}

func (l *GPIOLine) Configure() error {
	if _, err := os.Stat(l.valuePath); err != nil {
		if err := l.export(); err != nil {
			return err
		}
	}

	directionPath := filepath.Join(gpioRoot, fmt.Sprintf("gpio%d", l.pin), "direction")
	if err := os.WriteFile(directionPath, []byte("in"), 0644); err != nil {
		return fmt.Errorf("failed to set gpio %d direction: %w", l.pin, err)
	}

	if _, err := l.Read(); err != nil {
		return err
	}
	return nil
}

func (l *GPIOLine) export() error {
	exportPath := filepath.Join(gpioRoot, "export")
	if err := os.WriteFile(exportPath, []byte(strconv.Itoa(l.pin)), 0644); err != nil {
		return fmt.Errorf("failed to export gpio %d: %w", l.pin, err)
	}
	// The kernel takes a moment to create the pin directory and fix up
	// its permissions after export.
	for i := 0; i < 10; i++ {
		if _, err := os.Stat(l.valuePath); err == nil {
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("gpio %d did not appear after export", l.pin)
}

func (l *GPIOLine) Read() (Level, error) {
	data, err := os.ReadFile(l.valuePath)
	if err != nil {
		return High, fmt.Errorf("failed to read gpio %d: %w", l.pin, err)
	}
	if strings.TrimSpace(string(data)) == "0" {
		return Low, nil
	}
	return High, nil
}

func (l *GPIOLine) Release() error {
	unexportPath := filepath.Join(gpioRoot, "unexport")
	if err := os.WriteFile(unexportPath, []byte(strconv.Itoa(l.pin)), 0644); err != nil {
		return fmt.Errorf("failed to unexport gpio %d: %w", l.pin, err)
	}
	return nil
}

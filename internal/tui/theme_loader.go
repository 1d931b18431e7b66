package tui

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/lipgloss"
)

// themeFile represents the structure of the theme TOML file. Pointers
// distinguish a missing value from an empty one, so a file may override
// only some colors.
type themeFile struct {
	Primary    *string `toml:"Primary,omitempty"`
	Subtle     *string `toml:"Subtle,omitempty"`
	Success    *string `toml:"Success,omitempty"`
	Error      *string `toml:"Error,omitempty"`
	Normal     *string `toml:"Normal,omitempty"`
	Disabled   *string `toml:"Disabled,omitempty"`
	Border     *string `toml:"Border,omitempty"`
	SignalHigh *string `toml:"SignalHigh,omitempty"`
	SignalLow  *string `toml:"SignalLow,omitempty"`

	WiredIcon  *string `toml:"WiredIcon,omitempty"`
	OpenIcon   *string `toml:"OpenIcon,omitempty"`
	SecureIcon *string `toml:"SecureIcon,omitempty"`
}

// LoadTheme loads a theme from the given path and overrides the default theme.
// If the path is empty, it does nothing.
func LoadTheme(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var tf themeFile
	if err := toml.Unmarshal(data, &tf); err != nil {
		return fmt.Errorf("theme %s: %w", path, err)
	}

	theme := NewDefaultTheme()
	colors := []struct {
		value *string
		dst   *lipgloss.TerminalColor
	}{
		{tf.Primary, &theme.Primary},
		{tf.Subtle, &theme.Subtle},
		{tf.Success, &theme.Success},
		{tf.Error, &theme.Error},
		{tf.Normal, &theme.Normal},
		{tf.Disabled, &theme.Disabled},
		{tf.Border, &theme.Border},
		{tf.SignalHigh, &theme.SignalHigh},
		{tf.SignalLow, &theme.SignalLow},
	}
	for _, c := range colors {
		if c.value != nil {
			*c.dst = lipgloss.Color(*c.value)
		}
	}
	icons := []struct {
		value *string
		dst   *string
	}{
		{tf.WiredIcon, &theme.WiredIcon},
		{tf.OpenIcon, &theme.OpenIcon},
		{tf.SecureIcon, &theme.SecureIcon},
	}
	for _, i := range icons {
		if i.value != nil {
			*i.dst = *i.value
		}
	}

	CurrentTheme = theme
	return nil
}

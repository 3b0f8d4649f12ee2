package banner

import (
	"stampede/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

func GetString() string {
	style := lipgloss.NewStyle().
		Foreground(styles.ColorBanner).
		Bold(true)

	ascii := `
     _                                  _
 ___| |_ __ _ _ __ ___  _ __   ___  __| | ___
/ __| __/ _' | '_ ' _ \| '_ \ / _ \/ _' |/ _ \
\__ \ || (_| | | | | | | |_) |  __/ (_| |  __/
|___/\__\__,_|_| |_| |_| .__/ \___|\__,_|\___|
                       |_|                    `

	return "\n" + style.Render(ascii) + "\n"
}

package chatrelay

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the client
// matches any color scheme.
type Theme struct {
	UserMsg    int // User turn accent
	Assistant  int // Assistant label
	Attachment int // Attachment line
	Error      int // Failed turns, auth errors
	Success    int // Run-code affordance
	Muted      int // Status bar, placeholders, loading line
	CodeBg     int // Code block background
	Accent     int // Headings, links, selection
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		UserMsg:    4,
		Assistant:  6,
		Attachment: 3,
		Error:      1,
		Success:    2,
		Muted:      8,
		CodeBg:     0,
		Accent:     5,
	}
}

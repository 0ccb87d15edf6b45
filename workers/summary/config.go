package summary

// Config holds review selection settings for summary generation
type Config struct {
	// Reviews must be strictly longer than MinChars and strictly shorter
	// than MaxChars to be summarized.
	MinChars int
	MaxChars int
	// Window is how many of the newest eligible reviews are considered.
	Window int
}

func (c Config) withDefaults() Config {
	if c.MinChars <= 0 {
		c.MinChars = 50
	}
	if c.MaxChars <= 0 {
		c.MaxChars = 400
	}
	if c.Window <= 0 {
		c.Window = 500
	}
	return c
}

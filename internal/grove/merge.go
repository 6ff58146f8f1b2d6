package grove

import "github.com/verte-zerg/plantree/internal/model"

// Merge carries full tiers upward in base radix: radix seedlings become a
// tree, radix trees become a giant. Counts left over from a larger radix are
// only carried when a tier reaches the current radix.
func Merge(c *model.Counts, radix int) {
	if radix < 2 {
		return
	}
	if c.Seedlings >= radix {
		c.Trees += c.Seedlings / radix
		c.Seedlings %= radix
	}
	if c.Trees >= radix {
		c.Giants += c.Trees / radix
		c.Trees %= radix
	}
}

// Score values each tier by its weight under radix.
func Score(c model.Counts, radix int) int {
	return c.Seedlings + c.Trees*radix + c.Giants*radix*radix
}

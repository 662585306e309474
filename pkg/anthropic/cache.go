package anthropic

// BuildCachedSystemBlocks constructs system content blocks for repeated
// questioning of one large context: the instructions stay uncached, the
// context block carries a cache breakpoint so follow-up requests over the
// same document hit the warm cache.
func BuildCachedSystemBlocks(instructions, context string) []SystemBlock {
	return []SystemBlock{
		{Text: instructions},
		{
			Text: context,
			CacheControl: &CacheControl{
				TTL: "5m",
			},
		},
	}
}

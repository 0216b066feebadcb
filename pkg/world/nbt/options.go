package nbt

// DecodeOptions is the one configurable knob the decoder needs: how deep
// Compound/List nesting may go before decoding fails predictably instead
// of recursing the machine stack into the ground.
type DecodeOptions struct {
	// MaxDepth bounds the nesting depth of Compound/List tags. The root
	// compound itself counts as depth 1, and a Compound or List at depth d
	// is decoded only while d+1 <= MaxDepth (the depth of the tags it
	// holds), so the deepest Compound/List accepted sits at MaxDepth-1.
	MaxDepth int
}

// DefaultDecodeOptions returns the decoder's default configuration: a
// maximum nesting depth of 512.
func DefaultDecodeOptions() DecodeOptions {
	return DecodeOptions{MaxDepth: 512}
}

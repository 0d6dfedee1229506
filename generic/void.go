package generic

// Void is the zero-size value type, used for set membership and for Results that carry no value.
type Void = struct{}

func NewVoid() Void {
	return Void{}
}

package event

// Owner is a liveness capability for subscriptions. Every Token taken from
// an Owner stays alive until the Owner is released; releasing advances the
// generation, so tokens taken afterwards are alive again.
//
// Owners are not safe for concurrent use, matching Context.
type Owner struct {
	generation uint64
}

// NewOwner creates an Owner at generation zero.
func NewOwner() *Owner {
	return &Owner{}
}

// Token captures the owner's current generation.
func (o *Owner) Token() Token {
	return Token{owner: o, generation: o.generation}
}

// Release expires every token issued so far.
func (o *Owner) Release() {
	o.generation++
}

// Generation returns the current generation.
func (o *Owner) Generation() uint64 {
	return o.generation
}

// Token is compared against its Owner at activation time. The zero Token has
// no owner and is always alive.
type Token struct {
	owner      *Owner
	generation uint64
}

// Alive reports whether the token's owner has not been released since the
// token was taken.
func (t Token) Alive() bool {
	return t.owner == nil || t.owner.generation == t.generation
}

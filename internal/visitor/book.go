package visitor

import (
	"fmt"
	"io"
	"strconv"

	"github.com/evcraddock/gatepass/internal/apperr"
	"github.com/evcraddock/gatepass/internal/credential"
)

// Book holds the visitors most recently ingested for one resident.
// Not safe for concurrent use.
type Book struct {
	visitors []Visitor
	index    map[int64]int
}

// NewBook creates an empty visitor book.
func NewBook() *Book {
	return &Book{index: make(map[int64]int)}
}

// Replace swaps in a freshly ingested batch. A batch with duplicate IDs or
// duplicate OTPs is rejected and the book is emptied, so no partial roster
// is ever shown.
func (b *Book) Replace(visitors []Visitor) error {
	index := make(map[int64]int, len(visitors))
	otps := make(map[string]int64, len(visitors))
	batch := make([]Visitor, 0, len(visitors))

	for i, v := range visitors {
		if _, dup := index[v.ID]; dup {
			b.Clear()
			return &apperr.IngestionFormatError{Reason: fmt.Sprintf("duplicate visitor id %d", v.ID)}
		}
		if v.OTP != "" {
			if other, dup := otps[v.OTP]; dup {
				b.Clear()
				return &apperr.IngestionFormatError{Reason: fmt.Sprintf("visitors %d and %d share an otp", other, v.ID)}
			}
			otps[v.OTP] = v.ID
		}
		index[v.ID] = i
		batch = append(batch, v.clone())
	}

	b.visitors = batch
	b.index = index
	return nil
}

// Ingest decodes a backend response and replaces the book with it.
// On any error the book is left empty.
func (b *Book) Ingest(r io.Reader) error {
	visitors, err := Decode(r)
	if err != nil {
		b.Clear()
		return err
	}
	return b.Replace(visitors)
}

// Clear empties the book.
func (b *Book) Clear() {
	b.visitors = nil
	b.index = make(map[int64]int)
}

// List returns a snapshot of all visitors in backend order.
func (b *Book) List() []Visitor {
	out := make([]Visitor, len(b.visitors))
	for i, v := range b.visitors {
		out[i] = v.clone()
	}
	return out
}

// Active returns the visitors currently inside.
func (b *Book) Active() []Visitor {
	return Active(b.List())
}

// Get returns a copy of the visitor with the given ID.
func (b *Book) Get(id int64) (Visitor, error) {
	i, ok := b.index[id]
	if !ok {
		return Visitor{}, &apperr.NotFoundError{Kind: "visitor", ID: strconv.FormatInt(id, 10)}
	}
	return b.visitors[i].clone(), nil
}

// Len returns the number of visitors held.
func (b *Book) Len() int {
	return len(b.visitors)
}

// OTPs returns the set of non-empty OTPs held by visitors in the book.
func (b *Book) OTPs() map[string]struct{} {
	codes := make(map[string]struct{}, len(b.visitors))
	for _, v := range b.visitors {
		if v.OTP != "" {
			codes[v.OTP] = struct{}{}
		}
	}
	return codes
}

// IssueOTP returns a fresh code that no visitor in the book holds, for a
// resident to hand to an expected guest.
func (b *Book) IssueOTP(issuer *credential.Issuer) (string, error) {
	code, err := issuer.Issue(b.OTPs())
	if err != nil {
		return "", fmt.Errorf("issuing otp: %w", err)
	}
	return code, nil
}

// Active returns the visitors that have entered and not left, in order.
func Active(visitors []Visitor) []Visitor {
	active := make([]Visitor, 0, len(visitors))
	for _, v := range visitors {
		if v.IsInside() {
			active = append(active, v)
		}
	}
	return active
}

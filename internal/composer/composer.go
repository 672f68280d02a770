// Package composer implements the multi-line sales-order state machine.
//
// A draft order accumulates validated lines against live, fetch-on-demand
// stock snapshots and is submitted to the ledger as a single all-or-nothing
// unit. The stock bound applied at AddLine time is advisory: the ledger
// performs the authoritative check at submission, and a rejected commit is
// a normal failure path (back to Composing, lines preserved), not a crash.
//
// States: Empty -> Composing -> Committing -> (Empty | Composing).
package composer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rcoop/console/internal/cache"
	"github.com/rcoop/console/internal/ledger"
	"github.com/rcoop/console/internal/probe"
)

// State of the composer.
type State int

const (
	// Empty: no draft in progress.
	Empty State = iota
	// Composing: draft open, lines may be added and removed.
	Composing
	// Committing: atomic create-order call in flight.
	Committing
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Composing:
		return "composing"
	case Committing:
		return "committing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Validation error codes.
const (
	CodeNotComposing      = "NOT_COMPOSING"
	CodeCommitInFlight    = "COMMIT_IN_FLIGHT"
	CodeMissingMaterial   = "MISSING_MATERIAL"
	CodeInvalidQuantity   = "INVALID_QUANTITY"
	CodeInvalidPrice      = "INVALID_PRICE"
	CodeInvalidBuyer      = "INVALID_BUYER"
	CodeNoBuyer           = "NO_BUYER"
	CodeNoLines           = "NO_LINES"
	CodeBadLineIndex      = "BAD_LINE_INDEX"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
)

// ValidationError blocks a state transition synchronously. It never
// reaches the network layer and the draft is always left unchanged.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsValidation reports whether err is a client-local validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var (
	errNotComposing   = &ValidationError{CodeNotComposing, "no draft open"}
	errCommitInFlight = &ValidationError{CodeCommitInFlight, "commit in progress"}
)

func insufficientStock(requested, available float64, unit string) *ValidationError {
	return &ValidationError{
		Code:    CodeInsufficientStock,
		Message: fmt.Sprintf("insufficient stock: requested %g, available %g %s", requested, available, unit),
	}
}

// StockView is what the composer needs from the stock probe.
// Implemented by *probe.Prober.
type StockView interface {
	Current() (probe.Snapshot, bool)
	Clear()
}

// Submitter issues the atomic create-order call.
// Implemented by *ledger.Client.
type Submitter interface {
	CreateSale(ctx context.Context, d ledger.SaleDraft) error
}

// Invalidator marks dependent collections stale after a confirmed success.
// Implemented by *cache.Synchronizer.
type Invalidator interface {
	Invalidate(m cache.Mutation)
}

// Composer is the in-memory, single-order state machine.
//
// Thread-safety: methods are safe for concurrent use, but the design is
// single-operator; the lock exists to make interleavings at network
// suspension points well-defined, not to support parallel composition.
type Composer struct {
	mu      sync.Mutex
	state   State
	buyerID int64
	lines   []ledger.SaleLine

	stock  StockView
	submit Submitter
	inv    Invalidator
}

// New creates a composer in the Empty state.
func New(stock StockView, submit Submitter, inv Invalidator) *Composer {
	return &Composer{stock: stock, submit: submit, inv: inv}
}

// State returns the current state.
func (c *Composer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// BuyerID returns the draft's buyer, 0 if unset.
func (c *Composer) BuyerID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buyerID
}

// Lines returns a copy of the draft's lines in insertion order.
func (c *Composer) Lines() []ledger.SaleLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ledger.SaleLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Open starts a fresh draft, clearing any leftover lines and buyer.
func (c *Composer) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Committing {
		return errCommitInFlight
	}
	c.state = Composing
	c.buyerID = 0
	c.lines = nil
	c.stock.Clear()
	return nil
}

// SetBuyer selects the buyer for the draft.
func (c *Composer) SetBuyer(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Composing {
		return errNotComposing
	}
	if id <= 0 {
		return &ValidationError{CodeInvalidBuyer, "buyer is required"}
	}
	c.buyerID = id
	return nil
}

// AddLine validates and appends one line.
//
// The quantity bound against the current stock snapshot applies only when
// a probe exists for the selected material, and is final: the line is
// never revalidated afterwards. On success the staged probe is cleared so
// the next line starts from a fresh selection.
func (c *Composer) AddLine(materialID int64, quantity, unitPrice float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Composing {
		return errNotComposing
	}
	if materialID <= 0 {
		return &ValidationError{CodeMissingMaterial, "material is required"}
	}
	if quantity <= 0 {
		return &ValidationError{CodeInvalidQuantity, "quantity must be positive"}
	}
	if unitPrice <= 0 {
		return &ValidationError{CodeInvalidPrice, "unit price must be positive"}
	}
	if snap, ok := c.stock.Current(); ok && snap.MaterialID == materialID && quantity > snap.AvailableQty {
		return insufficientStock(quantity, snap.AvailableQty, snap.Unit)
	}

	c.lines = append(c.lines, ledger.SaleLine{
		MaterialID: materialID,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
	})
	c.stock.Clear()

	slog.Debug("line added", "material_id", materialID, "quantity", quantity, "lines", len(c.lines))
	return nil
}

// RemoveLine removes exactly the addressed line, preserving the relative
// order of the rest. Remaining lines are not revalidated against current
// stock: each line's check was final when it was added.
func (c *Composer) RemoveLine(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Composing {
		return errNotComposing
	}
	if index < 0 || index >= len(c.lines) {
		return &ValidationError{CodeBadLineIndex, fmt.Sprintf("no line at index %d", index)}
	}
	c.lines = append(c.lines[:index], c.lines[index+1:]...)
	return nil
}

// Commit submits the whole order atomically. No network call is made
// unless the buyer is set and at least one line exists.
//
// Success clears the draft (back to Empty) and invalidates the sales and
// stock collections. Failure returns to Composing with the draft intact
// for retry or edit; the remote message is surfaced verbatim.
func (c *Composer) Commit(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Composing {
		c.mu.Unlock()
		return errNotComposing
	}
	if c.buyerID == 0 {
		c.mu.Unlock()
		return &ValidationError{CodeNoBuyer, "select a buyer before committing"}
	}
	if len(c.lines) == 0 {
		c.mu.Unlock()
		return &ValidationError{CodeNoLines, "add at least one line before committing"}
	}

	draft := ledger.SaleDraft{
		BuyerID: c.buyerID,
		Lines:   make([]ledger.SaleLine, len(c.lines)),
	}
	copy(draft.Lines, c.lines)
	c.state = Committing
	c.mu.Unlock()

	err := c.submit.CreateSale(ctx, draft)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Committing {
		// Discarded while in flight (session expiry). The draft is gone;
		// whatever the call returned no longer matters here.
		return err
	}

	if err != nil {
		c.state = Composing
		slog.Warn("sale commit rejected", "buyer_id", draft.BuyerID, "lines", len(draft.Lines), "error", err)
		return err
	}

	c.state = Empty
	c.buyerID = 0
	c.lines = nil
	c.inv.Invalidate(cache.MutateSale)
	slog.Info("sale committed", "buyer_id", draft.BuyerID, "lines", len(draft.Lines))
	return nil
}

// Discard drops the draft unconditionally (explicit cancel or session
// expiry). No attempt is ever made to resume a discarded draft.
func (c *Composer) Discard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Empty
	c.buyerID = 0
	c.lines = nil
	c.stock.Clear()
}

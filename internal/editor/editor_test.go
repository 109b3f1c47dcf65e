package editor_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgoncalv/quotedesk/internal/editor"
	"github.com/mgoncalv/quotedesk/internal/quote"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}

	return d
}

func newDraft(t *testing.T) *quote.Quote {
	t.Helper()

	item, err := quote.NewLineItem(quote.ItemEquipment, "Heat pump", dec("1"), dec("4000"))
	require.NoError(t, err)

	return &quote.Quote{
		ID:            uuid.New(),
		Status:        quote.StatusDraft,
		Tier:          quote.TierBetter,
		CustomerName:  "Jensen Residence",
		TaxRate:       dec("0.0825"),
		MarginPercent: dec("35"),
		LineItems:     []quote.LineItem{item},
	}
}

func TestEditor_AddItem(t *testing.T) {
	type args struct {
		input editor.ItemInput
	}

	type testCase struct {
		name      string
		opts      editor.Options
		args      args
		wantTotal string
		wantErr   bool
	}

	tests := []testCase{
		{
			name: "Success",
			args: args{
				input: editor.ItemInput{
					Type:        quote.ItemLabor,
					Description: "Installation",
					Quantity:    "8",
					UnitPrice:   "150",
				},
			},
			wantTotal: "1200",
		},
		{
			name: "UnparsableQuantityIsZero",
			args: args{
				input: editor.ItemInput{
					Type:        quote.ItemMaterials,
					Description: "Line set",
					Quantity:    "a few",
					UnitPrice:   "500",
				},
			},
			wantTotal: "0",
		},
		{
			name: "EmptyPriceIsZero",
			args: args{
				input: editor.ItemInput{
					Type:        quote.ItemMaterials,
					Description: "Misc fittings",
					Quantity:    "3",
					UnitPrice:   "",
				},
			},
			wantTotal: "0",
		},
		{
			name: "NegativeAllowedByDefault",
			args: args{
				input: editor.ItemInput{
					Type:        quote.ItemEquipment,
					Description: "Trade-in credit",
					Quantity:    "1",
					UnitPrice:   "-500",
				},
			},
			wantTotal: "-500",
		},
		{
			name: "NegativeRejectedWhenConfigured",
			opts: editor.Options{RejectNegative: true},
			args: args{
				input: editor.ItemInput{
					Type:        quote.ItemEquipment,
					Description: "Trade-in credit",
					Quantity:    "1",
					UnitPrice:   "-500",
				},
			},
			wantErr: true,
		},
		{
			name: "EmptyDescriptionRejected",
			args: args{
				input: editor.ItemInput{
					Type:        quote.ItemLabor,
					Description: "  ",
					Quantity:    "1",
					UnitPrice:   "100",
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed := editor.New(newDraft(t), tt.opts)

			err := ed.AddItem(tt.args.input)

			if tt.wantErr {
				require.Error(t, err)
				assert.Len(t, ed.Items(), 1, "ledger must be untouched on failure")
				assert.False(t, ed.Dirty())

				return
			}

			require.NoError(t, err)

			items := ed.Items()
			require.Len(t, items, 2)
			assert.True(t, dec(tt.wantTotal).Equal(items[1].Total), "total: want %s got %s", tt.wantTotal, items[1].Total)
			assert.True(t, ed.Dirty())
		})
	}
}

func TestEditor_UpdateItem(t *testing.T) {
	ed := editor.New(newDraft(t), editor.Options{})

	err := ed.UpdateItem(0, editor.ItemInput{
		Type:        quote.ItemEquipment,
		Description: "Heat pump, upsized",
		Quantity:    "1",
		UnitPrice:   "5200",
	})
	require.NoError(t, err)

	items := ed.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Heat pump, upsized", items[0].Description)
	assert.True(t, dec("5200").Equal(items[0].Total))
	assert.True(t, ed.Dirty())

	err = ed.UpdateItem(5, editor.ItemInput{Type: quote.ItemLabor, Description: "x", Quantity: "1", UnitPrice: "1"})

	var vErr *quote.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestEditor_RemoveItem(t *testing.T) {
	ed := editor.New(newDraft(t), editor.Options{})

	require.NoError(t, ed.RemoveItem(0))
	assert.Empty(t, ed.Items())
	assert.True(t, ed.Dirty())

	var vErr *quote.ValidationError
	assert.ErrorAs(t, ed.RemoveItem(0), &vErr)
}

func TestEditor_ReadOnlyOutsideDraft(t *testing.T) {
	q := newDraft(t)
	q.Status = quote.StatusSent

	ed := editor.New(q, editor.Options{})

	input := editor.ItemInput{Type: quote.ItemLabor, Description: "Extra visit", Quantity: "1", UnitPrice: "95"}

	assert.ErrorIs(t, ed.AddItem(input), quote.ErrEditNotAllowed)
	assert.ErrorIs(t, ed.UpdateItem(0, input), quote.ErrEditNotAllowed)
	assert.ErrorIs(t, ed.RemoveItem(0), quote.ErrEditNotAllowed)

	_, _, err := ed.BeginSave()
	assert.ErrorIs(t, err, quote.ErrEditNotAllowed)
}

func TestEditor_TotalsRecomputeAfterEveryEdit(t *testing.T) {
	ed := editor.New(newDraft(t), editor.Options{})

	totals, err := ed.Totals()
	require.NoError(t, err)
	assert.True(t, dec("4000").Equal(totals.Subtotal))

	require.NoError(t, ed.AddItem(editor.ItemInput{
		Type:        quote.ItemLabor,
		Description: "Installation",
		Quantity:    "8",
		UnitPrice:   "150",
	}))

	totals, err = ed.Totals()
	require.NoError(t, err)
	assert.True(t, dec("5200").Equal(totals.Subtotal))
	assert.True(t, dec("4000").Equal(totals.TaxableBase), "labor stays out of the taxable base")

	require.NoError(t, ed.RemoveItem(1))

	totals, err = ed.Totals()
	require.NoError(t, err)
	assert.True(t, dec("4000").Equal(totals.Subtotal))
}

func TestEditor_SaveRoundTrip(t *testing.T) {
	ed := editor.New(newDraft(t), editor.Options{})

	require.NoError(t, ed.AddItem(editor.ItemInput{
		Type:        quote.ItemMaterials,
		Description: "Pad and whip",
		Quantity:    "1",
		UnitPrice:   "180",
	}))

	snapshot, rev, err := ed.BeginSave()
	require.NoError(t, err)
	assert.True(t, ed.InFlight())
	assert.Len(t, snapshot.LineItems, 2)
	assert.True(t, dec("4180").Equal(snapshot.Subtotal), "snapshot carries derived totals")

	require.NoError(t, ed.FinishSave(rev, snapshot, nil))
	assert.False(t, ed.Dirty())
	assert.False(t, ed.InFlight())
}

func TestEditor_FailedSaveKeepsEdits(t *testing.T) {
	ed := editor.New(newDraft(t), editor.Options{})

	require.NoError(t, ed.AddItem(editor.ItemInput{
		Type:        quote.ItemLabor,
		Description: "Crane rental",
		Quantity:    "1",
		UnitPrice:   "750",
	}))

	_, rev, err := ed.BeginSave()
	require.NoError(t, err)

	reqErr := errors.New("store unavailable")
	assert.ErrorIs(t, ed.FinishSave(rev, nil, reqErr), reqErr)

	assert.True(t, ed.Dirty(), "edits survive a failed save")
	assert.Len(t, ed.Items(), 2)
	assert.False(t, ed.InFlight(), "a failed request is finished, retry is allowed")
}

func TestEditor_SingleRequestInFlight(t *testing.T) {
	ed := editor.New(newDraft(t), editor.Options{})

	_, _, err := ed.BeginSave()
	require.NoError(t, err)

	_, _, err = ed.BeginSave()
	assert.ErrorIs(t, err, editor.ErrRequestInFlight)
}

func TestEditor_EditsRefusedWhileSaveInFlight(t *testing.T) {
	ed := editor.New(newDraft(t), editor.Options{})

	snapshot, rev, err := ed.BeginSave()
	require.NoError(t, err)

	input := editor.ItemInput{
		Type:        quote.ItemMaterials,
		Description: "Added mid-save",
		Quantity:    "1",
		UnitPrice:   "50",
	}

	// A mutation landing between BeginSave and FinishSave would be
	// clobbered by the refresh from the pre-edit snapshot, so each one is
	// refused while the request is out.
	assert.ErrorIs(t, ed.AddItem(input), editor.ErrRequestInFlight)
	assert.ErrorIs(t, ed.UpdateItem(0, input), editor.ErrRequestInFlight)
	assert.ErrorIs(t, ed.RemoveItem(0), editor.ErrRequestInFlight)
	assert.Len(t, ed.Items(), 1)

	require.NoError(t, ed.FinishSave(rev, snapshot, nil))
	assert.False(t, ed.Dirty())

	// Once the save settles the ledger is editable again.
	require.NoError(t, ed.AddItem(input))
	assert.Len(t, ed.Items(), 2)
	assert.True(t, ed.Dirty())
}

func TestEditor_StaleResultDiscarded(t *testing.T) {
	t.Run("ClosedEditor", func(t *testing.T) {
		ed := editor.New(newDraft(t), editor.Options{})

		snapshot, rev, err := ed.BeginSave()
		require.NoError(t, err)

		ed.Close()

		assert.ErrorIs(t, ed.FinishSave(rev, snapshot, nil), editor.ErrStaleResult)
	})

	t.Run("SupersededRevision", func(t *testing.T) {
		ed := editor.New(newDraft(t), editor.Options{})

		snapshot, oldRev, err := ed.BeginSave()
		require.NoError(t, err)

		// The first request errors out, then a second one starts. The first
		// response arriving late must not clobber the newer state.
		require.Error(t, ed.FinishSave(oldRev, nil, errors.New("timeout")))

		_, _, err = ed.BeginSave()
		require.NoError(t, err)

		assert.ErrorIs(t, ed.FinishSave(oldRev, snapshot, nil), editor.ErrStaleResult)
	})
}

func TestEditor_SendGating(t *testing.T) {
	t.Run("DirtyLedgerBlocksSend", func(t *testing.T) {
		ed := editor.New(newDraft(t), editor.Options{})

		require.NoError(t, ed.AddItem(editor.ItemInput{
			Type:        quote.ItemLabor,
			Description: "Startup and commissioning",
			Quantity:    "2",
			UnitPrice:   "125",
		}))

		_, err := ed.BeginSend(quote.SendEmail)
		assert.ErrorIs(t, err, quote.ErrUnsavedChanges)
	})

	t.Run("CleanDraftSends", func(t *testing.T) {
		draft := newDraft(t)
		ed := editor.New(draft, editor.Options{})

		rev, err := ed.BeginSend(quote.SendEmail)
		require.NoError(t, err)

		sent := *draft
		sent.Status = quote.StatusSent

		require.NoError(t, ed.FinishSend(rev, &sent, nil))
		assert.Equal(t, quote.StatusSent, ed.Quote().Status)
	})

	t.Run("UnknownMethod", func(t *testing.T) {
		ed := editor.New(newDraft(t), editor.Options{})

		_, err := ed.BeginSend(quote.SendMethod("carrier pigeon"))

		var vErr *quote.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("AlreadySent", func(t *testing.T) {
		q := newDraft(t)
		q.Status = quote.StatusSent

		ed := editor.New(q, editor.Options{})

		_, err := ed.BeginSend(quote.SendSMS)

		var tErr *quote.InvalidTransitionError
		assert.ErrorAs(t, err, &tErr)
	})
}

func TestEditor_StatusTransitions(t *testing.T) {
	q := newDraft(t)
	q.Status = quote.StatusSent

	ed := editor.New(q, editor.Options{})

	_, err := ed.BeginStatus(quote.StatusDraft)

	var tErr *quote.InvalidTransitionError
	assert.ErrorAs(t, err, &tErr)

	rev, err := ed.BeginStatus(quote.StatusAccepted)
	require.NoError(t, err)

	accepted := *q
	accepted.Status = quote.StatusAccepted

	require.NoError(t, ed.FinishStatus(rev, &accepted, nil))
	assert.Equal(t, quote.StatusAccepted, ed.Quote().Status)
}

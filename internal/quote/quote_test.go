package quote_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgoncalv/quotedesk/internal/quote"
)

func TestStatus_CanTransition(t *testing.T) {
	type testCase struct {
		name string
		from quote.Status
		to   quote.Status
		want bool
	}

	tests := []testCase{
		{name: "DraftToSent", from: quote.StatusDraft, to: quote.StatusSent, want: true},
		{name: "DraftToAccepted", from: quote.StatusDraft, to: quote.StatusAccepted, want: false},
		{name: "DraftToViewed", from: quote.StatusDraft, to: quote.StatusViewed, want: false},
		{name: "DraftToExpired", from: quote.StatusDraft, to: quote.StatusExpired, want: false},
		{name: "SentToViewed", from: quote.StatusSent, to: quote.StatusViewed, want: true},
		{name: "SentToAccepted", from: quote.StatusSent, to: quote.StatusAccepted, want: true},
		{name: "SentToRejected", from: quote.StatusSent, to: quote.StatusRejected, want: true},
		{name: "SentToExpired", from: quote.StatusSent, to: quote.StatusExpired, want: true},
		{name: "SentBackToDraft", from: quote.StatusSent, to: quote.StatusDraft, want: false},
		{name: "ViewedToAccepted", from: quote.StatusViewed, to: quote.StatusAccepted, want: true},
		{name: "ViewedToRejected", from: quote.StatusViewed, to: quote.StatusRejected, want: true},
		{name: "ViewedToExpired", from: quote.StatusViewed, to: quote.StatusExpired, want: true},
		{name: "ViewedBackToSent", from: quote.StatusViewed, to: quote.StatusSent, want: false},
		{name: "AcceptedIsTerminal", from: quote.StatusAccepted, to: quote.StatusExpired, want: false},
		{name: "RejectedIsTerminal", from: quote.StatusRejected, to: quote.StatusSent, want: false},
		{name: "ExpiredIsTerminal", from: quote.StatusExpired, to: quote.StatusAccepted, want: false},
		{name: "SelfTransition", from: quote.StatusSent, to: quote.StatusSent, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, quote.StatusDraft.Terminal())
	assert.False(t, quote.StatusSent.Terminal())
	assert.False(t, quote.StatusViewed.Terminal())
	assert.True(t, quote.StatusAccepted.Terminal())
	assert.True(t, quote.StatusRejected.Terminal())
	assert.True(t, quote.StatusExpired.Terminal())
}

func TestStatus_Editable(t *testing.T) {
	assert.True(t, quote.StatusDraft.Editable())
	assert.False(t, quote.StatusSent.Editable())
	assert.False(t, quote.StatusViewed.Editable())
	assert.False(t, quote.StatusAccepted.Editable())
}

func TestNewLineItem(t *testing.T) {
	type args struct {
		itemType    quote.ItemType
		description string
		quantity    string
		unitPrice   string
	}

	type testCase struct {
		name      string
		args      args
		wantTotal string
		wantErr   bool
	}

	tests := []testCase{
		{
			name: "Success",
			args: args{
				itemType:    quote.ItemEquipment,
				description: "Air handler",
				quantity:    "2",
				unitPrice:   "1250.50",
			},
			wantTotal: "2501.00",
		},
		{
			name: "FractionalQuantityRounds",
			args: args{
				itemType:    quote.ItemLabor,
				description: "Service call",
				quantity:    "1.5",
				unitPrice:   "96.33",
			},
			wantTotal: "144.50",
		},
		{
			name: "NegativePriceAllowed",
			args: args{
				itemType:    quote.ItemEquipment,
				description: "Manufacturer rebate",
				quantity:    "1",
				unitPrice:   "-300",
			},
			wantTotal: "-300",
		},
		{
			name: "DescriptionTrimmed",
			args: args{
				itemType:    quote.ItemMaterials,
				description: "  Copper tubing  ",
				quantity:    "10",
				unitPrice:   "4.25",
			},
			wantTotal: "42.50",
		},
		{
			name: "EmptyDescriptionRejected",
			args: args{
				itemType:    quote.ItemMaterials,
				description: "   ",
				quantity:    "1",
				unitPrice:   "10",
			},
			wantErr: true,
		},
		{
			name: "UnknownTypeRejected",
			args: args{
				itemType:    quote.ItemType("consulting"),
				description: "On-site review",
				quantity:    "1",
				unitPrice:   "10",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := quote.NewLineItem(tt.args.itemType, tt.args.description, dec(tt.args.quantity), dec(tt.args.unitPrice))

			if tt.wantErr {
				require.Error(t, err)

				var vErr *quote.ValidationError
				assert.ErrorAs(t, err, &vErr)

				return
			}

			require.NoError(t, err)
			assert.True(t, dec(tt.wantTotal).Equal(got.Total), "total: want %s got %s", tt.wantTotal, got.Total)
			assert.Equal(t, got.Description, strings.TrimSpace(tt.args.description))
		})
	}
}

func TestQuote_ApplyTotals(t *testing.T) {
	q := &quote.Quote{}

	totals := quote.Totals{
		Equipment:   dec("5000"),
		Labor:       dec("1200"),
		Materials:   dec("500"),
		Subtotal:    dec("6700"),
		TaxableBase: dec("5500"),
		Tax:         dec("453.75"),
		Total:       dec("7153.75"),
		Cost:        dec("4962.96"),
		Profit:      dec("1737.04"),
	}

	q.ApplyTotals(totals)

	assert.True(t, totals.Equipment.Equal(q.EquipmentTotal))
	assert.True(t, totals.Labor.Equal(q.LaborTotal))
	assert.True(t, totals.Materials.Equal(q.MaterialsTotal))
	assert.True(t, totals.Subtotal.Equal(q.Subtotal))
	assert.True(t, totals.Tax.Equal(q.Tax))
	assert.True(t, totals.Total.Equal(q.Total))
	assert.True(t, totals.Cost.Equal(q.CostTotal))
	assert.True(t, totals.Profit.Equal(q.Profit))
}

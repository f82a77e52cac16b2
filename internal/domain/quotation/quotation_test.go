package quotation

import (
	"testing"

	"github.com/docflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func qty(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func createDraftQuotation(t *testing.T) *Quotation {
	t.Helper()
	q, err := NewQuotation(uuid.New())
	require.NoError(t, err)
	_, err = q.AddLine(uuid.New(), qty("10"), qty("100"))
	require.NoError(t, err)
	return q
}

func createApprovedQuotation(t *testing.T) *Quotation {
	t.Helper()
	q := createDraftQuotation(t)
	require.NoError(t, q.SubmitForApproval())
	require.NoError(t, q.Approve())
	return q
}

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"draft to pending", StatusDraft, StatusPending, true},
		{"draft to approved", StatusDraft, StatusApproved, false},
		{"pending to approved", StatusPending, StatusApproved, true},
		{"pending to rejected", StatusPending, StatusRejected, true},
		{"pending to accepted", StatusPending, StatusAccepted, false},
		{"approved to sending", StatusApproved, StatusSending, true},
		{"approved to accepted", StatusApproved, StatusAccepted, true},
		{"approved to sent", StatusApproved, StatusSent, false},
		{"sending to sent", StatusSending, StatusSent, true},
		{"sending to accepted", StatusSending, StatusAccepted, false},
		{"sent to sending", StatusSent, StatusSending, true},
		{"sent to accepted", StatusSent, StatusAccepted, true},
		{"rejected is terminal", StatusRejected, StatusPending, false},
		{"accepted is terminal", StatusAccepted, StatusSending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatus_IsApprovedEquivalent(t *testing.T) {
	assert.True(t, StatusApproved.IsApprovedEquivalent())
	assert.True(t, StatusSent.IsApprovedEquivalent())
	assert.True(t, StatusAccepted.IsApprovedEquivalent())

	assert.False(t, StatusDraft.IsApprovedEquivalent())
	assert.False(t, StatusPending.IsApprovedEquivalent())
	assert.False(t, StatusRejected.IsApprovedEquivalent())
	assert.False(t, StatusSending.IsApprovedEquivalent())
}

func TestNewQuotation(t *testing.T) {
	projectID := uuid.New()

	q, err := NewQuotation(projectID)

	require.NoError(t, err)
	assert.Equal(t, projectID, q.ProjectID)
	assert.Equal(t, 1, q.Revision)
	assert.Equal(t, StatusDraft, q.Status)
	assert.True(t, q.TotalAmount.IsZero())
	assert.Len(t, q.GetDomainEvents(), 1)

	_, err = NewQuotation(uuid.Nil)
	assert.Error(t, err)
}

func TestQuotation_AddLine(t *testing.T) {
	q, err := NewQuotation(uuid.New())
	require.NoError(t, err)
	productID := uuid.New()

	line, err := q.AddLine(productID, qty("10"), qty("100"))
	require.NoError(t, err)
	assert.True(t, line.Amount.Equal(qty("1000")))
	assert.True(t, q.TotalAmount.Equal(qty("1000")))

	t.Run("rejects duplicate product", func(t *testing.T) {
		_, err := q.AddLine(productID, qty("5"), qty("100"))
		assert.Error(t, err)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := q.AddLine(uuid.New(), qty("0"), qty("100"))
		assert.Error(t, err)
	})
}

func TestQuotation_EditOnlyInDraft(t *testing.T) {
	q := createDraftQuotation(t)
	lineID := q.Lines[0].ID
	require.NoError(t, q.SubmitForApproval())

	_, err := q.AddLine(uuid.New(), qty("1"), qty("1"))
	assert.Error(t, err)

	assert.Error(t, q.UpdateLineQuantity(lineID, qty("5")))
	assert.Error(t, q.RemoveLine(lineID))
	assert.False(t, q.CanModify())
}

func TestQuotation_UpdateLineQuantity(t *testing.T) {
	q := createDraftQuotation(t)
	lineID := q.Lines[0].ID

	require.NoError(t, q.UpdateLineQuantity(lineID, qty("20")))
	assert.True(t, q.Lines[0].Quantity.Equal(qty("20")))
	assert.True(t, q.TotalAmount.Equal(qty("2000")))

	assert.Error(t, q.UpdateLineQuantity(uuid.New(), qty("5")))
}

func TestQuotation_RemoveLine(t *testing.T) {
	q := createDraftQuotation(t)
	lineID := q.Lines[0].ID

	require.NoError(t, q.RemoveLine(lineID))
	assert.Equal(t, 0, q.LineCount())
	assert.True(t, q.TotalAmount.IsZero())
}

func TestQuotation_SubmitForApproval(t *testing.T) {
	t.Run("requires at least one line", func(t *testing.T) {
		q, err := NewQuotation(uuid.New())
		require.NoError(t, err)
		assert.Error(t, q.SubmitForApproval())
	})

	t.Run("transitions to pending", func(t *testing.T) {
		q := createDraftQuotation(t)
		require.NoError(t, q.SubmitForApproval())
		assert.Equal(t, StatusPending, q.Status)
		assert.NotNil(t, q.SubmittedAt)
	})

	t.Run("rejects resubmission", func(t *testing.T) {
		q := createDraftQuotation(t)
		require.NoError(t, q.SubmitForApproval())

		err := q.SubmitForApproval()
		var invalid *shared.InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "PENDING", invalid.From)
		assert.Equal(t, "PENDING", invalid.Attempted)
	})
}

func TestQuotation_ApproveAndReject(t *testing.T) {
	t.Run("approve from pending", func(t *testing.T) {
		q := createDraftQuotation(t)
		require.NoError(t, q.SubmitForApproval())
		require.NoError(t, q.Approve())
		assert.Equal(t, StatusApproved, q.Status)
		assert.NotNil(t, q.DecidedAt)
	})

	t.Run("reject from pending", func(t *testing.T) {
		q := createDraftQuotation(t)
		require.NoError(t, q.SubmitForApproval())
		require.NoError(t, q.Reject())
		assert.Equal(t, StatusRejected, q.Status)
	})

	t.Run("approve from draft fails", func(t *testing.T) {
		q := createDraftQuotation(t)
		var invalid *shared.InvalidTransitionError
		assert.ErrorAs(t, q.Approve(), &invalid)
	})
}

func TestQuotation_SendingFlow(t *testing.T) {
	q := createApprovedQuotation(t)

	require.NoError(t, q.MarkSending())
	assert.Equal(t, StatusSending, q.Status)

	require.NoError(t, q.MarkSent())
	assert.Equal(t, StatusSent, q.Status)
	assert.NotNil(t, q.SentAt)

	// re-send from SENT
	require.NoError(t, q.MarkSending())
	require.NoError(t, q.MarkSent())

	require.NoError(t, q.MarkAccepted())
	assert.Equal(t, StatusAccepted, q.Status)
	assert.NotNil(t, q.AcceptedAt)
	assert.True(t, q.IsAccepted())
}

func TestQuotation_AcceptDirectlyFromApproved(t *testing.T) {
	q := createApprovedQuotation(t)
	require.NoError(t, q.MarkAccepted())
	assert.Equal(t, StatusAccepted, q.Status)
}

func TestQuotation_CreateNewRevision(t *testing.T) {
	q := createApprovedQuotation(t)
	sourceLineID := q.Lines[0].ID

	next, err := q.CreateNewRevision()
	require.NoError(t, err)

	assert.NotEqual(t, q.ID, next.ID)
	assert.Equal(t, q.ProjectID, next.ProjectID)
	assert.Equal(t, q.Revision+1, next.Revision)
	assert.Equal(t, StatusDraft, next.Status)

	// lines copied with fresh identity
	require.Len(t, next.Lines, 1)
	assert.NotEqual(t, sourceLineID, next.Lines[0].ID)
	assert.Equal(t, next.ID, next.Lines[0].QuotationID)
	assert.True(t, next.Lines[0].Quantity.Equal(q.Lines[0].Quantity))

	// source untouched
	assert.Equal(t, StatusApproved, q.Status)
	assert.Equal(t, sourceLineID, q.Lines[0].ID)
}

func TestQuotation_CreateNewRevision_RequiresDecidedStatus(t *testing.T) {
	t.Run("draft cannot be revised", func(t *testing.T) {
		q := createDraftQuotation(t)
		_, err := q.CreateNewRevision()
		assert.Error(t, err)
	})

	t.Run("pending cannot be revised", func(t *testing.T) {
		q := createDraftQuotation(t)
		require.NoError(t, q.SubmitForApproval())
		_, err := q.CreateNewRevision()
		assert.Error(t, err)
	})

	t.Run("rejected can be revised", func(t *testing.T) {
		q := createDraftQuotation(t)
		require.NoError(t, q.SubmitForApproval())
		require.NoError(t, q.Reject())
		next, err := q.CreateNewRevision()
		require.NoError(t, err)
		assert.Equal(t, 2, next.Revision)
	})
}

func TestQuotation_AuthorizedQuantities(t *testing.T) {
	q, err := NewQuotation(uuid.New())
	require.NoError(t, err)
	productA := uuid.New()
	productB := uuid.New()
	_, err = q.AddLine(productA, qty("10"), qty("1"))
	require.NoError(t, err)
	_, err = q.AddLine(productB, qty("2.5"), qty("4"))
	require.NoError(t, err)

	authorized := q.AuthorizedQuantities()

	require.Len(t, authorized, 2)
	assert.True(t, authorized[productA].Equal(qty("10")))
	assert.True(t, authorized[productB].Equal(qty("2.5")))
}

func TestQuotation_LifecycleEvents(t *testing.T) {
	q := createDraftQuotation(t)
	q.ClearDomainEvents()

	require.NoError(t, q.SubmitForApproval())
	require.NoError(t, q.Approve())
	require.NoError(t, q.MarkAccepted())

	events := q.GetDomainEvents()
	require.Len(t, events, 3)
	assert.Equal(t, EventQuotationSubmitted, events[0].EventType())
	assert.Equal(t, EventQuotationApproved, events[1].EventType())
	assert.Equal(t, EventQuotationAccepted, events[2].EventType())
	for _, e := range events {
		assert.Equal(t, q.ID, e.AggregateID())
	}
}

// Package scan routes a scanned QR payload to the operation it names:
// a member payload awards points, a redemption payload processes the
// request.
package scan

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/loyalprogram/loyalty-api/internal/domain/ledger"
	"github.com/loyalprogram/loyalty-api/internal/domain/qrcode"
	"github.com/loyalprogram/loyalty-api/internal/domain/user"
	"github.com/loyalprogram/loyalty-api/internal/pkg/metrics"
	"github.com/loyalprogram/loyalty-api/internal/pkg/tracing"
)

// DefaultNote labels awards made through a member QR scan.
const DefaultNote = "Points awarded via QR scan"

var ErrInvalidAmount = ledger.ErrInvalidAmount

// Awarder credits points to a member.
type Awarder interface {
	Award(ctx context.Context, actor user.Actor, memberID, amount int64, note string) (*ledger.Transaction, error)
}

// Processor completes a pending redemption request.
type Processor interface {
	Process(ctx context.Context, actor user.Actor, requestID int64) (*ledger.Transaction, error)
}

// Input is what the operator submits with a scan. Points and RawPoints are
// only read for member payloads; RawPoints, when set, is parsed with
// ParsePoints and takes precedence over Points.
type Input struct {
	Payload   string
	Points    int64
	RawPoints json.RawMessage
	Note      string
}

// Result describes the transaction a scan produced.
type Result struct {
	Type        qrcode.Type         `json:"type"`
	MemberID    int64               `json:"user_id"`
	RequestID   int64               `json:"request_id,omitempty"`
	Transaction *ledger.Transaction `json:"transaction"`
}

type Dispatcher struct {
	ledger   Awarder
	workflow Processor
}

func NewDispatcher(ledger Awarder, workflow Processor) *Dispatcher {
	return &Dispatcher{ledger: ledger, workflow: workflow}
}

// Dispatch decodes in.Payload and performs the matching operation.
func (d *Dispatcher) Dispatch(ctx context.Context, actor user.Actor, in Input) (*Result, error) {
	ctx, span := tracing.Start(ctx, "scan.Dispatch")
	defer span.End()

	payload, err := qrcode.Decode(in.Payload)
	if err != nil {
		metrics.Loyalty().ObserveScan("unknown", "undecodable")
		return nil, tracing.Fail(span, err)
	}
	span.SetAttributes(attribute.String("scan.type", string(payload.Type())))

	var result *Result
	switch p := payload.(type) {
	case qrcode.UserPayload:
		result, err = d.award(ctx, actor, p, in)
	case qrcode.RedemptionPayload:
		result, err = d.process(ctx, actor, p)
	default:
		err = &qrcode.DecodeError{Reason: "unsupported payload"}
	}

	metrics.Loyalty().ObserveScan(string(payload.Type()), outcome(err))
	if err != nil {
		return nil, tracing.Fail(span, err)
	}

	log.Info().
		Str("type", string(result.Type)).
		Int64("member_id", result.MemberID).
		Int64("transaction_id", result.Transaction.ID).
		Int64("actor_id", actor.ID).
		Msg("Scan dispatched")
	return result, nil
}

func (d *Dispatcher) award(ctx context.Context, actor user.Actor, p qrcode.UserPayload, in Input) (*Result, error) {
	points := in.Points
	if in.RawPoints != nil {
		parsed, err := ParsePoints(in.RawPoints)
		if err != nil {
			return nil, err
		}
		points = parsed
	}
	if points <= 0 {
		return nil, ErrInvalidAmount
	}
	note := strings.TrimSpace(in.Note)
	if note == "" {
		note = DefaultNote
	}
	txn, err := d.ledger.Award(ctx, actor, p.UserID, points, note)
	if err != nil {
		return nil, err
	}
	return &Result{Type: qrcode.TypeUser, MemberID: p.UserID, Transaction: txn}, nil
}

// process ignores any operator-entered points; the request's own amount
// is what gets debited.
func (d *Dispatcher) process(ctx context.Context, actor user.Actor, p qrcode.RedemptionPayload) (*Result, error) {
	txn, err := d.workflow.Process(ctx, actor, p.RequestID)
	if err != nil {
		return nil, err
	}
	return &Result{Type: qrcode.TypeRedemption, MemberID: txn.MemberID, RequestID: p.RequestID, Transaction: txn}, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, qrcode.ErrDecode):
		return "undecodable"
	default:
		return "rejected"
	}
}

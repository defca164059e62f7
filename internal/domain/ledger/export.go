package ledger

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/loyalprogram/loyalty-api/internal/domain/user"
	"github.com/loyalprogram/loyalty-api/internal/pkg/storage"
)

const exportPageSize = 500

// ExportResult locates a written export.
type ExportResult struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Rows int    `json:"rows"`
}

// Exporter writes transaction searches as CSV files to object storage.
type Exporter struct {
	repo  Repository
	store storage.Storage
	now   func() time.Time
}

func NewExporter(repo Repository, store storage.Storage) *Exporter {
	return &Exporter{repo: repo, store: store, now: time.Now}
}

// Export writes every transaction matching filter, ignoring its pagination.
func (e *Exporter) Export(ctx context.Context, actor user.Actor, filter SearchFilter) (*ExportResult, error) {
	if !actor.IsManager() {
		return nil, ErrForbidden
	}
	if filter.Kind != "" && !filter.Kind.IsValid() {
		return nil, ErrInvalidKind
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"id", "created_at", "kind", "amount", "member_id", "actor_id", "redemption_id", "note"})

	rows := 0
	filter.Limit = exportPageSize
	for offset := 0; ; offset += exportPageSize {
		filter.Offset = offset
		page, _, err := e.repo.Search(ctx, filter)
		if err != nil {
			return nil, err
		}
		for _, t := range page {
			redemption := ""
			if t.RedemptionID != nil {
				redemption = strconv.FormatInt(*t.RedemptionID, 10)
			}
			_ = w.Write([]string{
				strconv.FormatInt(t.ID, 10),
				t.CreatedAt.UTC().Format(time.RFC3339),
				string(t.Kind),
				strconv.FormatInt(t.Amount, 10),
				strconv.FormatInt(t.MemberID, 10),
				strconv.FormatInt(t.ActorID, 10),
				redemption,
				t.Note,
			})
		}
		rows += len(page)
		if len(page) < exportPageSize {
			break
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("%w: write csv", ErrInternal)
	}

	key := fmt.Sprintf("ledger/%s/%s.csv", e.now().UTC().Format("2006-01-02"), uuid.NewString())
	if err := e.store.Put(ctx, key, &buf, "text/csv"); err != nil {
		return nil, err
	}

	log.Info().Str("key", key).Int("rows", rows).Int64("actor_id", actor.ID).Msg("Ledger export written")
	return &ExportResult{Key: key, URL: e.store.URL(key), Rows: rows}, nil
}

package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"Paddlers/internal/town/app/port"
	"Paddlers/internal/town/entity/domain"
	"Paddlers/modules/kit/errx"
)

func TestReportToDoc(t *testing.T) {
	at := time.Date(2024, 5, 1, 20, 0, 0, 0, time.FixedZone("CST", 8*3600))
	doc := ReportToDoc(port.ArchivedReport{
		ID:        9,
		VillageID: 2,
		Kind:      "taxes",
		At:        at,
		Karma:     4,
		Resources: map[domain.ResourceType]int64{domain.Feathers: 3},
	})
	assert.Equal(t, int64(9), doc.ID)
	assert.Equal(t, time.UTC, doc.At.Location())
	assert.True(t, doc.At.Equal(at))
	assert.Equal(t, map[string]int64{"feathers": 3}, doc.Resources)
	assert.Nil(t, doc.Defeated)
}

func TestSaveReports_空批次不访问集合(t *testing.T) {
	var r *ReportRepository
	assert.NoError(t, r.SaveReports(context.Background(), nil))
}

func TestSaveReports_没有集合不重试(t *testing.T) {
	var r *ReportRepository
	err := r.SaveReports(context.Background(), []port.ArchivedReport{{ID: 1}})
	assert.Error(t, err)
	assert.False(t, errx.Retryable(err))
}

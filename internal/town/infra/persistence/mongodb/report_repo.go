package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"Paddlers/internal/town/app/port"
	"Paddlers/internal/town/infra/persistence/model"
	"Paddlers/modules/kit/errx"
)

var errNoCollection = errx.ErrInternal.WithMsg("mongodb report collection is nil")

const defaultCollectionName = "visit_reports"

type ReportRepository struct {
	coll *mongo.Collection
}

func NewReportRepository(db *mongo.Database) *ReportRepository {
	return &ReportRepository{
		coll: db.Collection(defaultCollectionName),
	}
}

// EnsureIndexes 建 (village_id, at desc) 索引供 VillageReports 使用，已存在时无副作用。
func (r *ReportRepository) EnsureIndexes(ctx context.Context) error {
	if r == nil || r.coll == nil {
		return errNoCollection
	}
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "village_id", Value: 1}, {Key: "at", Value: -1}},
		Options: options.Index().SetName("village_at"),
	})
	if err != nil {
		return errx.ErrUnavailable.WithCause(err).WithData("op", "ensure_indexes")
	}
	return nil
}

func ReportToDoc(r port.ArchivedReport) model.ReportDoc {
	doc := model.ReportDoc{
		ID:        r.ID,
		VillageID: r.VillageID,
		Kind:      r.Kind,
		At:        r.At.UTC(),
		Karma:     r.Karma,
		Defeated:  r.Defeated,
		Survivors: r.Survivors,
		Defence:   r.Defence,
	}
	if len(r.Resources) > 0 {
		doc.Resources = make(map[string]int64, len(r.Resources))
		for k, v := range r.Resources {
			doc.Resources[string(k)] = v
		}
	}
	return doc
}

// SaveReports 一次 BulkWrite，按 _id upsert。
func (r *ReportRepository) SaveReports(ctx context.Context, reports []port.ArchivedReport) error {
	if len(reports) == 0 {
		return nil
	}
	if r == nil || r.coll == nil {
		return errNoCollection
	}

	models := make([]mongo.WriteModel, 0, len(reports))
	for _, rep := range reports {
		doc := ReportToDoc(rep)
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": doc.ID}).
			SetReplacement(doc).
			SetUpsert(true))
	}
	if _, err := r.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return errx.ErrUnavailable.WithCause(err).WithData("count", len(reports))
	}
	return nil
}

// VillageReports 按时间倒序读取村庄的归档，limit<=0 表示不限。
func (r *ReportRepository) VillageReports(ctx context.Context, villageID int64, limit int64) ([]model.ReportDoc, error) {
	if r == nil || r.coll == nil {
		return nil, errNoCollection
	}
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := r.coll.Find(ctx, bson.M{"village_id": villageID}, opts)
	if err != nil {
		return nil, errx.ErrUnavailable.WithCause(err)
	}
	var out []model.ReportDoc
	if err = cur.All(ctx, &out); err != nil {
		return nil, errx.ErrUnavailable.WithCause(err)
	}
	return out, nil
}

var _ port.ReportSink = (*ReportRepository)(nil)

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RishiKendai/overlap/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const reportsCollection = "similarity_reports"

type ReportsRepository struct {
	mongoRepo *MongoRepository
}

func NewReportsRepository(mongoRepo *MongoRepository) *ReportsRepository {
	return &ReportsRepository{
		mongoRepo: mongoRepo,
	}
}

func (r *ReportsRepository) InsertReport(ctx context.Context, report *models.SimilarityReport) error {
	report.CreatedAt = time.Now()

	err := r.mongoRepo.InsertOne(ctx, reportsCollection, report)
	if err != nil {
		return fmt.Errorf("failed to insert similarity report: %w", err)
	}

	return nil
}

// UpdateReport replaces the stored state of the run identified by report.RunID
func (r *ReportsRepository) UpdateReport(ctx context.Context, report *models.SimilarityReport) error {
	filter := bson.M{"runId": report.RunID}
	update := bson.M{"$set": bson.M{
		"status":         report.Status,
		"error":          report.Error,
		"report":         report.Report,
		"total_analyzed": report.TotalAnalyzed,
		"flagged_pairs":  report.FlaggedPairs,
		"completedAt":    report.CompletedAt,
	}}

	res, err := r.mongoRepo.UpdateOne(ctx, reportsCollection, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update similarity report: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("similarity report %s not found", report.RunID)
	}

	return nil
}

// GetLatestReport returns nil when the assignment has never been compared
func (r *ReportsRepository) GetLatestReport(ctx context.Context, assignmentID string) (*models.SimilarityReport, error) {
	filter := bson.M{"assignmentId": assignmentID}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var report models.SimilarityReport
	err := r.mongoRepo.FindOne(ctx, reportsCollection, filter, opts).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find similarity report: %w", err)
	}

	return &report, nil
}

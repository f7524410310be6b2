package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"storefront/internal/models"
	"storefront/internal/repository"

	"go.uber.org/zap"
)

const (
	dailyReviewLimit = 5

	shortBodyReason = "Review too short - possible spam"
)

type SubmitReviewInput struct {
	Rating   float64
	Subject  string
	Body     string
	ClientIP string
}

type VoteResult struct {
	HelpfulVotes int     `json:"helpful_votes"`
	TotalVotes   int     `json:"total_votes"`
	Percentage   float64 `json:"percentage"`
}

type ReviewQueuePage struct {
	Reviews []*models.ReviewRating
	Total   int64
}

type ReviewService interface {
	// Submit создаёт отзыв или правит существующий; правка не входит в
	// дневной лимит, но проходит классификацию заново.
	Submit(ctx context.Context, productID uint, in SubmitReviewInput) (*models.ReviewRating, error)
	// Vote — повторное голосование тем же вариантом снимает голос.
	Vote(ctx context.Context, reviewID uint, helpful bool) (*VoteResult, error)
	Queue(ctx context.Context, limit, offset int) (*ReviewQueuePage, error)
	Approve(ctx context.Context, ids []uint) (int, error)
	Hide(ctx context.Context, ids []uint, reason string) (int, error)
}

type reviewService struct {
	repo *repository.Repository
	log  *zap.Logger
	now  func() time.Time
}

func NewReviewService(repo *repository.Repository, log *zap.Logger) ReviewService {
	return &reviewService{repo: repo, log: log, now: time.Now}
}

// classify назначает статус нового или исправленного отзыва.
// Пороги считаются в символах, не в байтах.
func classify(rating float64, body string) (models.ReviewStatus, string) {
	length := utf8.RuneCountInString(strings.TrimSpace(body))
	if length < 10 {
		return models.ReviewStatusHidden, shortBodyReason
	}
	if rating == 5 && length < 20 {
		return models.ReviewStatusPending, ""
	}
	return models.ReviewStatusVisible, ""
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (s *reviewService) Submit(ctx context.Context, productID uint, in SubmitReviewInput) (*models.ReviewRating, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, ErrRatingInvalid
	}

	if _, err := s.repo.Products.GetByID(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	status, reason := classify(in.Rating, in.Body)

	existing, err := s.repo.Reviews.GetByUserProduct(ctx, id.UserID, productID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if existing != nil {
		existing.Rating = in.Rating
		existing.Subject = in.Subject
		existing.Body = in.Body
		existing.IP = in.ClientIP
		existing.Status = status
		existing.ModerationReason = reason
		existing.UpdatedAt = s.now()
		if err := s.repo.Reviews.Update(ctx, existing); err != nil {
			return nil, err
		}
		s.log.Info("Отзыв обновлён", zap.Uint("review_id", existing.ID), zap.String("status", string(status)))
		return existing, nil
	}

	cnt, err := s.repo.Reviews.CountForUserSince(ctx, id.UserID, startOfDay(s.now()))
	if err != nil {
		return nil, err
	}
	if cnt >= dailyReviewLimit {
		return nil, ErrReviewLimit
	}

	purchased, err := s.repo.Orders.UserPurchasedProduct(ctx, id.UserID, productID)
	if err != nil {
		return nil, err
	}

	rv := &models.ReviewRating{
		ProductID:        productID,
		UserID:           id.UserID,
		Subject:          in.Subject,
		Body:             in.Body,
		Rating:           in.Rating,
		IP:               in.ClientIP,
		Status:           status,
		VerifiedPurchase: purchased,
		ModerationReason: reason,
		CreatedAt:        s.now(),
		UpdatedAt:        s.now(),
	}
	if err := s.repo.Reviews.Create(ctx, rv); err != nil {
		return nil, err
	}

	s.log.Info("Отзыв создан",
		zap.Uint("review_id", rv.ID),
		zap.Uint("product_id", productID),
		zap.String("status", string(status)),
	)
	return rv, nil
}

func (s *reviewService) Vote(ctx context.Context, reviewID uint, helpful bool) (*VoteResult, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	rv, err := s.repo.Reviews.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	// свой отзыв оценивать нельзя
	if rv.UserID == id.UserID {
		return nil, ErrForbidden
	}

	// голос и пересчёт счётчиков — одна транзакция
	var helpfulCnt, total int
	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		vote, err := tx.Reviews.GetVote(ctx, reviewID, id.UserID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			err = tx.Reviews.CreateVote(ctx, &models.ReviewHelpfulness{
				ReviewID:  reviewID,
				UserID:    id.UserID,
				IsHelpful: helpful,
				CreatedAt: s.now(),
			})
		case err != nil:
			return err
		case vote.IsHelpful == helpful:
			// тот же вариант повторно — голос снимается
			err = tx.Reviews.DeleteVote(ctx, vote.ID)
		default:
			vote.IsHelpful = helpful
			err = tx.Reviews.UpdateVote(ctx, vote)
		}
		if err != nil {
			return err
		}

		helpfulCnt, total, err = tx.Reviews.RecountVotes(ctx, reviewID)
		return err
	})
	if err != nil {
		return nil, err
	}

	res := &VoteResult{HelpfulVotes: helpfulCnt, TotalVotes: total}
	if total > 0 {
		res.Percentage = float64(helpfulCnt) / float64(total) * 100
	}
	return res, nil
}

func (s *reviewService) Queue(ctx context.Context, limit, offset int) (*ReviewQueuePage, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !id.IsStaff {
		return nil, ErrForbidden
	}

	list, total, err := s.repo.Reviews.ListByStatus(ctx, models.ReviewStatusPending, limit, offset)
	if err != nil {
		return nil, err
	}
	return &ReviewQueuePage{Reviews: list, Total: total}, nil
}

func (s *reviewService) Approve(ctx context.Context, ids []uint) (int, error) {
	return s.moderate(ctx, ids, models.ReviewStatusVisible, models.AuditActionShow, "Approved by moderator")
}

func (s *reviewService) Hide(ctx context.Context, ids []uint, reason string) (int, error) {
	if strings.TrimSpace(reason) == "" {
		reason = "Hidden by moderator"
	}
	return s.moderate(ctx, ids, models.ReviewStatusHidden, models.AuditActionHide, reason)
}

func (s *reviewService) moderate(ctx context.Context, ids []uint, status models.ReviewStatus, action models.AuditAction, reason string) (int, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return 0, ErrUnauthorized
	}
	if !id.IsStaff {
		return 0, ErrForbidden
	}
	if len(ids) == 0 {
		return 0, ErrNothingSelected
	}

	list, err := s.repo.Reviews.ListByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}

	now := s.now()
	for _, rv := range list {
		if err := s.repo.Reviews.SetModeration(ctx, rv.ID, status, reason, id.UserID, now); err != nil {
			return 0, err
		}
		// отдельная строка журнала на каждый отзыв, даже при массовом действии
		audit := &models.ReviewAudit{
			ReviewID:  rv.ID,
			Action:    action,
			AdminID:   &id.UserID,
			Reason:    reason,
			CreatedAt: now,
		}
		if err := s.repo.Reviews.CreateAudit(ctx, audit); err != nil {
			return 0, err
		}
	}

	s.log.Info("Модерация отзывов",
		zap.String("action", string(action)),
		zap.Int("count", len(list)),
		zap.Uint("admin_id", id.UserID),
	)
	return len(list), nil
}

package service

import (
	"cmp"
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/niksmo/wheels-shop/internal/core/domain"
)

var authorNames = []string{
	"Александр", "Михаил", "Дмитрий", "Сергей", "Андрей",
	"Елена", "Анна", "Мария", "Ольга", "Татьяна",
	"Игорь", "Владимир", "Николай", "Евгений", "Алексей",
	"Наталья", "Екатерина", "Ирина", "Светлана", "Юлия",
}

func randomAuthor() string {
	return authorNames[rand.IntN(len(authorNames))]
}

func (s Service) Reviews(
	ctx context.Context, q domain.ReviewQuery,
) ([]domain.Review, error) {
	const op = "Service.Reviews"

	rs, err := s.reviews.Reviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rs = slices.DeleteFunc(slices.Clone(rs), func(r domain.Review) bool {
		if q.ProductID != "" && r.ProductID != q.ProductID {
			return true
		}
		return q.Model != "" && !strings.EqualFold(r.Model, q.Model)
	})

	sortReviews(rs, q.Sort)
	return rs, nil
}

// AddReview stores a review verified by a known order number.
func (s Service) AddReview(
	ctx context.Context, req domain.ReviewRequest,
) (domain.Review, error) {
	const op = "Service.AddReview"

	if req.Rating < domain.MinRating || req.Rating > domain.MaxRating {
		return domain.Review{}, fmt.Errorf("%s: %w", op, domain.ErrInvalidRating)
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return domain.Review{}, fmt.Errorf("%s: %w", op, domain.ErrEmptyReview)
	}

	order, err := s.orders.FindOrder(ctx, strings.TrimSpace(req.OrderNumber))
	if err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	author := strings.TrimSpace(req.Author)
	if author == "" {
		author = s.randomAuthor()
	}

	r, err := s.reviews.StoreReview(ctx, domain.Review{
		ProductID: order.ProductID,
		Model:     order.Model,
		Author:    author,
		Rating:    req.Rating,
		Date:      s.now(),
		Text:      text,
		Images:    req.Images,
	})
	if err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}

func sortReviews(rs []domain.Review, by domain.ReviewSort) {
	newest := func(a, b domain.Review) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	}

	switch by {
	case domain.ReviewsPositive:
		slices.SortFunc(rs, func(a, b domain.Review) int {
			if c := cmp.Compare(b.Rating, a.Rating); c != 0 {
				return c
			}
			return newest(a, b)
		})
	case domain.ReviewsNegative:
		slices.SortFunc(rs, func(a, b domain.Review) int {
			if c := cmp.Compare(a.Rating, b.Rating); c != 0 {
				return c
			}
			return newest(a, b)
		})
	default:
		slices.SortFunc(rs, newest)
	}
}

package domain

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID        int
	ProductID string
	Model     string
	Author    string
	Rating    int
	Date      time.Time
	Text      string
	Likes     int
	Dislikes  int
	Images    []string
	Avatar    string
}

type ReviewSort string

const (
	ReviewsNewest   ReviewSort = "newest"
	ReviewsPositive ReviewSort = "positive"
	ReviewsNegative ReviewSort = "negative"
)

type ReviewQuery struct {
	ProductID string
	Model     string
	Sort      ReviewSort
}

type ReviewRequest struct {
	OrderNumber string
	Author      string
	Rating      int
	Text        string
	Images      []string
}

type Order struct {
	Number    string
	ProductID string
	Model     string
	Name      string
	Date      time.Time
}

// AverageRating returns the mean rating of rs, 0 for no reviews.
func AverageRating(rs []Review) float64 {
	if len(rs) == 0 {
		return 0
	}
	var sum int
	for _, r := range rs {
		sum += r.Rating
	}
	return float64(sum) / float64(len(rs))
}

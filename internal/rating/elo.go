package rating

import "math"

const (
	// DefaultRating is assigned to a player on first contact.
	DefaultRating = 1500

	kFactor = 32
)

// ExpectedScore is the standard Elo expectation of a scoring b, in [0, 1].
func ExpectedScore(a, b int) float64 {
	return 1 / (1 + math.Pow(10, float64(b-a)/400))
}

// Update returns both players' new ratings after a game with the given
// score for a (1 win, 0 loss, 0.5 draw). Both expectations are computed
// from the pre-game ratings; results are rounded to the nearest integer.
func Update(a, b int, scoreA float64) (newA, newB int) {
	ea := ExpectedScore(a, b)
	eb := ExpectedScore(b, a)
	newA = int(math.Round(float64(a) + kFactor*(scoreA-ea)))
	newB = int(math.Round(float64(b) + kFactor*((1-scoreA)-eb)))
	return newA, newB
}

// Rank maps a rating onto its skill tier.
func Rank(rating int) string {
	switch {
	case rating >= 2000:
		return "Grandmaster"
	case rating >= 1800:
		return "Master"
	case rating >= 1600:
		return "Expert"
	case rating >= 1400:
		return "Advanced"
	case rating >= 1200:
		return "Intermediate"
	default:
		return "Beginner"
	}
}

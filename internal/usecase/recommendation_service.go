package usecase

import (
	"strings"

	"github.com/groweasy/analytics/internal/domain"
)

// RecommendationService looks up marketing tips per customer segment
type RecommendationService struct {
	catalog domain.RecommendationCatalog
}

// NewRecommendationService creates a lookup over a read-only catalog
func NewRecommendationService(catalog domain.RecommendationCatalog) *RecommendationService {
	return &RecommendationService{catalog: catalog}
}

// Lookup returns every segment in definition order for "All", otherwise the
// named segment. Unknown segments come back with no tips.
func (s *RecommendationService) Lookup(segment string) []domain.Recommendation {
	if domain.IsAll(segment) {
		return s.catalog.All()
	}
	name := strings.TrimSpace(segment)
	tips, ok := s.catalog.Tips(name)
	if !ok {
		tips = []string{}
	}
	return []domain.Recommendation{{Segment: name, Tips: tips}}
}

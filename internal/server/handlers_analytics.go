package server

import (
	"net/http"
	"sort"

	"github.com/edgeflag/edgeflag/internal/api"
)

// handleOverrideCount handles GET /api/v1/environments/{envKey}/overrides.
func (r *Router) handleOverrideCount(w http.ResponseWriter, req *http.Request) {
	envKey, ok := getRequiredURLParam(w, req, "envKey")
	if !ok {
		return
	}

	count, err := r.analytics.OverrideCount(req.Context(), envKey)
	if err != nil {
		r.handleAndLogError(w, req, err, "count overrides")
		return
	}

	writeJSONResponse(w, http.StatusOK, api.OverrideCountResponse{
		EnvironmentAPIKey: envKey,
		Count:             count,
	})
}

// handleOverrideCountsByFeature handles GET /api/v1/environments/{envKey}/overrides/features.
func (r *Router) handleOverrideCountsByFeature(w http.ResponseWriter, req *http.Request) {
	envKey, ok := getRequiredURLParam(w, req, "envKey")
	if !ok {
		return
	}

	counts, err := r.analytics.OverrideCountsByFeature(req.Context(), envKey)
	if err != nil {
		r.handleAndLogError(w, req, err, "count overrides by feature")
		return
	}

	features := make([]api.FeatureOverrideCount, 0, len(counts))
	for featureID, identityCount := range counts {
		features = append(features, api.FeatureOverrideCount{
			FeatureID:     featureID,
			IdentityCount: identityCount,
		})
	}
	sort.Slice(features, func(i, j int) bool {
		return features[i].FeatureID < features[j].FeatureID
	})

	writeJSONResponse(w, http.StatusOK, api.FeatureOverridesResponse{
		EnvironmentAPIKey: envKey,
		Features:          features,
	})
}

package server

import (
	"net/http"

	"github.com/edgeflag/edgeflag/internal/api"
)

// handleIdentitySegments handles GET /api/v1/identities/{uuid}/segments.
// An unknown identity resolves to an empty membership list, not a 404.
func (r *Router) handleIdentitySegments(w http.ResponseWriter, req *http.Request) {
	identityUUID, ok := getRequiredURLParam(w, req, "uuid")
	if !ok {
		return
	}

	ids, err := r.segments.SegmentIDs(req.Context(), identityUUID)
	if err != nil {
		r.handleAndLogError(w, req, err, "resolve segments")
		return
	}

	writeJSONResponse(w, http.StatusOK, api.SegmentIDsResponse{
		IdentityUUID: identityUUID,
		SegmentIDs:   ids,
	})
}

package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/edgeflag/edgeflag/internal/api"
	"github.com/edgeflag/edgeflag/internal/constants"
	"github.com/edgeflag/edgeflag/internal/database"
	apperrors "github.com/edgeflag/edgeflag/internal/errors"
)

// handleCreateIdentity handles POST /api/v1/environments/{envKey}/identities.
func (r *Router) handleCreateIdentity(w http.ResponseWriter, req *http.Request) {
	envKey, ok := getRequiredURLParam(w, req, "envKey")
	if !ok {
		return
	}

	var createReq api.CreateIdentityRequest
	if err := decodeRequestBody(w, req, &createReq); err != nil {
		return
	}

	doc, err := r.identity.Create(req.Context(), envKey, createReq)
	if err != nil {
		r.handleAndLogError(w, req, err, "create identity")
		return
	}

	writeJSONResponse(w, http.StatusCreated, doc)
}

// handleListIdentities handles GET /api/v1/environments/{envKey}/identities.
// With a q parameter the listing becomes a search; otherwise it pages
// through the environment's identities.
func (r *Router) handleListIdentities(w http.ResponseWriter, req *http.Request) {
	envKey, ok := getRequiredURLParam(w, req, "envKey")
	if !ok {
		return
	}

	query := req.URL.Query()

	limit := r.pageSize
	if rawLimit := query.Get("limit"); rawLimit != "" {
		parsed, err := strconv.ParseInt(rawLimit, 10, 32)
		if err != nil || parsed <= 0 {
			writeErrorResponse(w, http.StatusBadRequest, "invalid limit", "limit must be a positive integer")
			return
		}
		limit = int32(parsed)
	}

	startKey, err := decodeCursor(query.Get("cursor"))
	if err != nil {
		r.handleAndLogError(w, req, err, "decode cursor")
		return
	}

	var page *database.Page
	if term := query.Get("q"); term != "" {
		searchReq, reqErr := searchRequestFromQuery(query, term)
		if reqErr != nil {
			r.handleAndLogError(w, req, reqErr, "parse search request")
			return
		}
		page, err = r.identity.Search(req.Context(), envKey, searchReq, limit, startKey)
	} else {
		page, err = r.identity.List(req.Context(), envKey, limit, startKey)
	}
	if err != nil {
		r.handleAndLogError(w, req, err, "list identities")
		return
	}

	writeJSONResponse(w, http.StatusOK, api.IdentitiesPage{
		Identities: page.Items,
		Cursor:     encodeCursor(page.LastEvaluatedKey),
	})
}

// searchRequestFromQuery maps list query parameters onto a search request.
// Defaults: identifier attribute, begins-with matching, the identifier index.
// Only identifier is servable as a search attribute: the index sorts on it,
// and anything else would fail in the store rather than at the boundary.
func searchRequestFromQuery(query map[string][]string, term string) (api.SearchRequest, error) {
	get := func(name string) string {
		if vs := query[name]; len(vs) > 0 {
			return vs[0]
		}
		return ""
	}

	attribute := get("attribute")
	if attribute == "" {
		attribute = "identifier"
	}
	if attribute != "identifier" {
		return api.SearchRequest{}, apperrors.ErrBadRequest(
			fmt.Sprintf("unsupported search attribute: %s", attribute), nil)
	}
	operator := api.SearchOperator(get("operator"))
	if operator == "" {
		operator = api.SearchOperatorBeginsWith
	}

	return api.SearchRequest{
		Attribute: attribute,
		Operator:  operator,
		Term:      term,
		IndexName: constants.EnvironmentAPIKeyIdentifierIndex,
	}, nil
}

// handleGetIdentity handles GET /api/v1/identities/{uuid}.
func (r *Router) handleGetIdentity(w http.ResponseWriter, req *http.Request) {
	identityUUID, ok := getRequiredURLParam(w, req, "uuid")
	if !ok {
		return
	}

	doc, err := r.identity.GetByUUID(req.Context(), identityUUID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			writeErrorResponseWithCode(w, http.StatusNotFound,
				apperrors.ErrCodeNotFound, "identity not found", identityUUID)
			return
		}
		r.handleAndLogError(w, req, err, "get identity")
		return
	}

	writeJSONResponse(w, http.StatusOK, doc)
}

// handleDeleteIdentity handles DELETE /api/v1/environments/{envKey}/identities/{identifier}.
func (r *Router) handleDeleteIdentity(w http.ResponseWriter, req *http.Request) {
	envKey, ok := getRequiredURLParam(w, req, "envKey")
	if !ok {
		return
	}
	identifier, ok := getRequiredURLParam(w, req, "identifier")
	if !ok {
		return
	}

	if err := r.identity.Delete(req.Context(), envKey, identifier); err != nil {
		r.handleAndLogError(w, req, err, "delete identity")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"hrconsole/internal/domain"
	"hrconsole/internal/engine"
	"hrconsole/internal/repo"
)

// recordRoutes binds one REST collection to its list and save functions.
type recordRoutes[I, O any] struct {
	Resource string
	Singular string
	List     func(ctx context.Context, term string) ([]O, error)
	// Save creates when id is zero and updates otherwise.
	Save func(ctx context.Context, id int64, in I) (O, error)
}

type searchInput struct {
	Search string `query:"search" doc:"Substring matched against the resource's text fields"`
}

type idInput struct {
	ID int64 `path:"id" minimum:"1"`
}

func registerRecords(api huma.API, e engine.Engine) {
	registerCollection(api, e, recordRoutes[domain.EmployeeInput, domain.Employee]{
		Resource: "employees", Singular: "employee",
		List: e.Repo.ListEmployees, Save: e.SaveEmployee,
	})
	registerCollection(api, e, recordRoutes[domain.ContractInput, domain.Contract]{
		Resource: "contracts", Singular: "contract",
		List: e.Repo.ListContracts, Save: e.SaveContract,
	})
	registerCollection(api, e, recordRoutes[domain.TrainingInput, domain.Training]{
		Resource: "training", Singular: "training",
		List: e.Repo.ListTraining, Save: e.SaveTraining,
	})
	registerCollection(api, e, recordRoutes[domain.AttendanceInput, domain.Attendance]{
		Resource: "attendance", Singular: "attendance",
		List: e.Repo.ListAttendance, Save: e.SaveAttendance,
	})
	registerCollection(api, e, recordRoutes[domain.AssetInput, domain.Asset]{
		Resource: "assets", Singular: "asset",
		List: e.Repo.ListAssets, Save: e.SaveAsset,
	})
}

func registerCollection[I, O any](api huma.API, e engine.Engine, rr recordRoutes[I, O]) {
	writeErrors := []int{
		http.StatusBadRequest,
		http.StatusNotFound,
		http.StatusConflict,
		http.StatusUnprocessableEntity,
		http.StatusInternalServerError,
	}
	tags := []string{rr.Resource}

	huma.Register(api, huma.Operation{
		OperationID: "list-" + rr.Resource,
		Method:      http.MethodGet,
		Path:        "/" + rr.Resource,
		Summary:     "List or search " + rr.Resource,
		Tags:        tags,
	}, func(ctx context.Context, input *searchInput) (*struct {
		Body []O `json:"body"`
	}, error) {
		items, err := rr.List(ctx, input.Search)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []O `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-" + rr.Singular,
		Method:        http.MethodPost,
		Path:          "/" + rr.Resource,
		Summary:       "Create " + rr.Singular,
		Tags:          tags,
		DefaultStatus: http.StatusCreated,
		Errors:        writeErrors,
	}, func(ctx context.Context, input *struct {
		Body I
	}) (*struct {
		Body O `json:"body"`
	}, error) {
		out, err := rr.Save(ctx, 0, input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body O `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-" + rr.Singular,
		Method:      http.MethodPut,
		Path:        "/" + rr.Resource + "/{id}",
		Summary:     "Replace " + rr.Singular,
		Tags:        tags,
		Errors:      writeErrors,
	}, func(ctx context.Context, input *struct {
		ID   int64 `path:"id" minimum:"1"`
		Body I
	}) (*struct {
		Body O `json:"body"`
	}, error) {
		out, err := rr.Save(ctx, input.ID, input.Body)
		if err != nil {
			return nil, handleError(describeNotFound(err, rr.Singular, input.ID))
		}
		return &struct {
			Body O `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-" + rr.Singular,
		Method:        http.MethodDelete,
		Path:          "/" + rr.Resource + "/{id}",
		Summary:       "Delete " + rr.Singular,
		Tags:          tags,
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound, http.StatusConflict, http.StatusInternalServerError},
	}, func(ctx context.Context, input *idInput) (*struct{}, error) {
		if err := e.Delete(ctx, rr.Resource, input.ID); err != nil {
			return nil, handleError(describeNotFound(err, rr.Singular, input.ID))
		}
		return &struct{}{}, nil
	})
}

func describeNotFound(err error, singular string, id int64) error {
	if errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("%s %d %w", singular, id, repo.ErrNotFound)
	}
	return err
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List recent audit events",
		Tags:        []string{"events"},
	}, func(ctx context.Context, input *struct {
		Resource string `query:"resource" enum:"employees,contracts,training,attendance,assets"`
		Limit    int    `query:"limit" default:"50"`
	}) (*struct {
		Body []domain.Event `json:"body"`
	}, error) {
		items, err := e.Repo.LatestEvents(ctx, normalizeLimit(input.Limit), input.Resource)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Event `json:"body"`
		}{Body: items}, nil
	})
}

package rdw

import (
	"errors"

	"github.com/samvad-hq/openoverheid/pkg/httpclient"
	"github.com/samvad-hq/openoverheid/pkg/opendata"
)

// API is the entry point to the RDW datasets covered by this module.
// Child APIs always borrow the root's HTTP client.
type API struct {
	Vehicles *VehicleAPI

	req *opendata.Requester
}

// NewAPI creates an API owning a fresh HTTP client.
func NewAPI(opts ...Option) *API {
	cfg := buildConfig(opts)
	return newAPI(opendata.New(cfg.requesterOptions()...), opts)
}

// NewAPIWithClient creates an API borrowing client.
func NewAPIWithClient(client httpclient.Client, opts ...Option) *API {
	cfg := buildConfig(opts)
	return newAPI(opendata.NewWithClient(client, cfg.requesterOptions()...), opts)
}

func newAPI(req *opendata.Requester, opts []Option) *API {
	return &API{
		Vehicles: NewVehicleAPIWithClient(req.Client(), opts...),
		req:      req,
	}
}

// Close closes the child APIs, then releases the HTTP client if owned.
func (a *API) Close() error {
	if a == nil {
		return nil
	}
	return errors.Join(a.Vehicles.Close(), a.req.Close())
}

// VehicleAPI groups the vehicle datasets.
type VehicleAPI struct {
	Inspections *InspectionClient

	req *opendata.Requester
}

// NewVehicleAPI creates a VehicleAPI owning a fresh HTTP client.
func NewVehicleAPI(opts ...Option) *VehicleAPI {
	cfg := buildConfig(opts)
	return newVehicleAPI(opendata.New(cfg.requesterOptions()...), opts)
}

// NewVehicleAPIWithClient creates a VehicleAPI borrowing client.
func NewVehicleAPIWithClient(client httpclient.Client, opts ...Option) *VehicleAPI {
	cfg := buildConfig(opts)
	return newVehicleAPI(opendata.NewWithClient(client, cfg.requesterOptions()...), opts)
}

func newVehicleAPI(req *opendata.Requester, opts []Option) *VehicleAPI {
	return &VehicleAPI{
		Inspections: NewInspectionClientWithClient(req.Client(), opts...),
		req:         req,
	}
}

// Close closes the inspection client, then releases the HTTP client if owned.
func (v *VehicleAPI) Close() error {
	if v == nil {
		return nil
	}
	return errors.Join(v.Inspections.Close(), v.req.Close())
}

package interfaces

import (
	"context"

	"invest-client/src/models"
)

// -----------------------------------------------------------------------------
// IInstrumentSource lists instruments from a remote service.
// -----------------------------------------------------------------------------

type IInstrumentSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// FetchInstruments returns the full listing.
	FetchInstruments(ctx context.Context) ([]models.MInstrument, error)
}

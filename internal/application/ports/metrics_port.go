package ports

// Metrics contadores de negocio. NopMetrics sirve cuando no hay exportador.
type Metrics interface {
	MovementRecorded(movementType string, quantity int)
	MovementRejected(reason string)
	InvoiceSubmitted(submitted, failed int)
	CountFinished(applied, failed int)
	PriceSynced(status string)
	CatalogLookup(source string, failed bool)
}

// NopMetrics implementación vacía.
type NopMetrics struct{}

func (NopMetrics) MovementRecorded(string, int) {}
func (NopMetrics) MovementRejected(string)      {}
func (NopMetrics) InvoiceSubmitted(int, int)    {}
func (NopMetrics) CountFinished(int, int)       {}
func (NopMetrics) PriceSynced(string)           {}
func (NopMetrics) CatalogLookup(string, bool)   {}

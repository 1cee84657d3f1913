// Package metrics publica contadores del inventario en Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/marina-inventario/internal/application/ports"
)

const namespace = "marina_inventario"

var _ ports.Metrics = (*Metrics)(nil)

// Metrics colectores de negocio y de HTTP.
type Metrics struct {
	movements      *prometheus.CounterVec
	movedUnits     *prometheus.CounterVec
	rejected       *prometheus.CounterVec
	invoiceItems   *prometheus.CounterVec
	countItems     *prometheus.CounterVec
	priceSync      *prometheus.CounterVec
	catalogLookups *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New registra los colectores en registerer (prometheus.DefaultRegisterer si es nil).
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "stock_movements_total",
			Help: "Movimientos registrados en el kardex por tipo.",
		}, []string{"type"}),
		movedUnits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "stock_moved_units_total",
			Help: "Unidades movidas por tipo de movimiento.",
		}, []string{"type"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "stock_movements_rejected_total",
			Help: "Movimientos rechazados por motivo.",
		}, []string{"reason"}),
		invoiceItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "invoice_items_total",
			Help: "Ítems de NF-e enviados al kardex por resultado.",
		}, []string{"result"}),
		countItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "count_adjustments_total",
			Help: "Ajustes de inventario físico por resultado.",
		}, []string{"result"}),
		priceSync: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "price_sync_total",
			Help: "Sincronizaciones de precio por estado.",
		}, []string{"status"}),
		catalogLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "catalog_lookups_total",
			Help: "Consultas al catálogo externo por origen y resultado.",
		}, []string{"source", "result"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "Duración de las peticiones HTTP.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	registerer.MustRegister(
		m.movements, m.movedUnits, m.rejected, m.invoiceItems,
		m.countItems, m.priceSync, m.catalogLookups, m.httpDuration,
	)
	return m
}

func (m *Metrics) MovementRecorded(movementType string, quantity int) {
	m.movements.WithLabelValues(movementType).Inc()
	m.movedUnits.WithLabelValues(movementType).Add(float64(quantity))
}

func (m *Metrics) MovementRejected(reason string) {
	m.rejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) InvoiceSubmitted(submitted, failed int) {
	m.invoiceItems.WithLabelValues("submitted").Add(float64(submitted))
	m.invoiceItems.WithLabelValues("failed").Add(float64(failed))
}

func (m *Metrics) CountFinished(applied, failed int) {
	m.countItems.WithLabelValues("applied").Add(float64(applied))
	m.countItems.WithLabelValues("failed").Add(float64(failed))
}

func (m *Metrics) PriceSynced(status string) {
	m.priceSync.WithLabelValues(status).Inc()
}

func (m *Metrics) CatalogLookup(source string, failed bool) {
	result := "ok"
	if failed {
		result = "error"
	}
	m.catalogLookups.WithLabelValues(source, result).Inc()
}

// ObserveRequest registra la duración de una petición HTTP.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Package estado mantiene el estado local del cliente de campo: un mapa
// en memoria de rutas y facturas que solo mutan los cierres del ejecutor
// optimista y los refrescos del listener. La política es "gana la última
// escritura observada".
package estado

import (
	"sync"

	"github.com/tu-usuario/entregas-pro/internal/domain"
	"github.com/tu-usuario/entregas-pro/internal/domain/entity"
)

// Store es el agregado local del cliente de campo.
type Store struct {
	mu       sync.RWMutex
	rutas    map[string]*entity.Ruta
	facturas map[string]*entity.Factura
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		rutas:    make(map[string]*entity.Ruta),
		facturas: make(map[string]*entity.Factura),
	}
}

// clonarFactura copia la factura junto con sus colecciones, para que la
// copia devuelta (o guardada) no comparta arreglos con el registro vivo.
// Sin esto, un rollback "restauraría" una factura cuyos items ya mutaron.
func clonarFactura(f *entity.Factura) *entity.Factura {
	cp := *f
	if f.Items != nil {
		cp.Items = make([]entity.Item, len(f.Items))
		copy(cp.Items, f.Items)
		for i := range cp.Items {
			if fotos := f.Items[i].FotosDano; fotos != nil {
				cp.Items[i].FotosDano = append([]string(nil), fotos...)
			}
		}
	}
	if f.FotosEntrega != nil {
		cp.FotosEntrega = append([]string(nil), f.FotosEntrega...)
	}
	return &cp
}

// clonarRuta copia la ruta junto con sus colecciones.
func clonarRuta(r *entity.Ruta) *entity.Ruta {
	cp := *r
	if r.FacturaIDs != nil {
		cp.FacturaIDs = append([]string(nil), r.FacturaIDs...)
	}
	if r.Gastos != nil {
		cp.Gastos = append([]entity.Gasto(nil), r.Gastos...)
	}
	return &cp
}

// CargarSnapshot reemplaza el estado completo con el snapshot inicial.
func (s *Store) CargarSnapshot(rutas []*entity.Ruta, facturas []*entity.Factura) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rutas = make(map[string]*entity.Ruta, len(rutas))
	for _, r := range rutas {
		s.rutas[r.ID] = clonarRuta(r)
	}
	s.facturas = make(map[string]*entity.Factura, len(facturas))
	for _, f := range facturas {
		s.facturas[f.ID] = clonarFactura(f)
	}
}

// Ruta devuelve una copia de la ruta local.
func (s *Store) Ruta(id string) (*entity.Ruta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rutas[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clonarRuta(r), nil
}

// Factura devuelve una copia de la factura local.
func (s *Store) Factura(id string) (*entity.Factura, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.facturas[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clonarFactura(f), nil
}

// Facturas devuelve copias de todas las facturas locales.
func (s *Store) Facturas() []*entity.Factura {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.Factura, 0, len(s.facturas))
	for _, f := range s.facturas {
		out = append(out, clonarFactura(f))
	}
	return out
}

// FacturasDeRuta devuelve copias de las facturas locales de una ruta.
func (s *Store) FacturasDeRuta(rutaID string) []*entity.Factura {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.Factura
	for _, f := range s.facturas {
		if f.RutaID == rutaID {
			out = append(out, clonarFactura(f))
		}
	}
	return out
}

// MutarFactura aplica fn sobre la factura local dentro del lock. La usa el
// ejecutor optimista para aplicar y revertir mutaciones.
func (s *Store) MutarFactura(id string, fn func(*entity.Factura) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.facturas[id]
	if !ok {
		return domain.ErrNotFound
	}
	return fn(f)
}

// MutarRuta aplica fn sobre la ruta local dentro del lock.
func (s *Store) MutarRuta(id string, fn func(*entity.Ruta) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rutas[id]
	if !ok {
		return domain.ErrNotFound
	}
	return fn(r)
}

// ReemplazarRuta sobrescribe la ruta local con la versión autoritativa.
func (s *Store) ReemplazarRuta(r *entity.Ruta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rutas[r.ID] = clonarRuta(r)
}

// ReemplazarFactura sobrescribe la factura local con la versión
// autoritativa. Cualquier marca optimista pendiente queda pisada.
func (s *Store) ReemplazarFactura(f *entity.Factura) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facturas[f.ID] = clonarFactura(f)
}

// EliminarFactura quita la factura del estado local.
func (s *Store) EliminarFactura(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.facturas, id)
}

// EliminarRuta quita la ruta del estado local.
func (s *Store) EliminarRuta(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rutas, id)
}

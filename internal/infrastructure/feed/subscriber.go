package feed

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/tu-usuario/entregas-pro/pkg/logger"
)

// Subscriber consume el canal de cambios de una empresa y lo expone como
// un channel de Go. Un mensaje malformado se descarta con warning; el
// cierre del contexto termina la suscripción y cierra el channel.
type Subscriber struct {
	rdb *redis.Client
	log *logger.Logger
}

// NewSubscriber construye el suscriptor sobre un cliente Redis.
func NewSubscriber(rdb *redis.Client, log *logger.Logger) *Subscriber {
	return &Subscriber{rdb: rdb, log: log}
}

// Suscribir abre la suscripción al canal de la empresa. El channel
// devuelto se cierra cuando ctx se cancela o la conexión se pierde.
func (s *Subscriber) Suscribir(ctx context.Context, companyID string) (<-chan Cambio, error) {
	pubsub := s.rdb.Subscribe(ctx, Canal(companyID))
	// Espera la confirmación de la suscripción antes de devolver el channel.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	out := make(chan Cambio, 64)
	go func() {
		defer close(out)
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var cambio Cambio
				if err := json.Unmarshal([]byte(msg.Payload), &cambio); err != nil {
					s.log.Warn().Err(err).Str("canal", msg.Channel).Msg("cambio malformado descartado")
					continue
				}
				select {
				case out <- cambio:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

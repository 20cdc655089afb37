package memory

import (
	"context"

	"astrotalk/internal/entity"

	"github.com/google/uuid"
)

type auditStore struct {
	s *Store
}

func (r *auditStore) Log(_ context.Context, log *entity.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	log.CreatedAt = r.s.now()
	r.s.audit = append(r.s.audit, *log)
	return nil
}

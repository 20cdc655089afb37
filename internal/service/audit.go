package service

import (
	"context"
	"encoding/json"
	"io"

	"astrotalk/internal/entity"
	"astrotalk/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// recordAudit writes an audit entry. Failures are logged and never fail the
// calling operation.
func recordAudit(
	ctx context.Context,
	logs repository.AuditLogRepository,
	logger logrus.FieldLogger,
	accountID *uuid.UUID,
	ipAddress *string,
	action entity.AuditAction,
	metadata map[string]any,
) {
	if logs == nil {
		return
	}
	var payload datatypes.JSON
	if metadata != nil {
		bytes, err := json.Marshal(metadata)
		if err != nil {
			logger.WithError(err).WithField("action", action).Warn("audit metadata encode failed")
			return
		}
		payload = datatypes.JSON(bytes)
	}

	entry := &entity.AuditLog{
		AccountID: accountID,
		IPAddress: ipAddress,
		Action:    action,
		Metadata:  payload,
	}
	if err := logs.Log(ctx, entry); err != nil {
		logger.WithError(err).WithField("action", action).Warn("audit log write failed")
	}
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

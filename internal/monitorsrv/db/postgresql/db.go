// Package postgresql implements the monitor store repositories over a
// per-request pooled connection.
package postgresql

import (
	"context"
	"database/sql"

	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/dbmanager"
)

type monitorDb struct {
	im *inventoryManager
	pm *pipelineManager
	cm *connectionManager
}

type inventoryManager struct {
	c dbmanager.Conn
}

type pipelineManager struct {
	c dbmanager.Conn
}

type connectionManager struct {
	c dbmanager.Conn
}

func NewMonitorDb(c dbmanager.Conn) (*inventoryManager, *pipelineManager, *connectionManager) {
	h := &monitorDb{}
	h.im = &inventoryManager{c: c}
	h.pm = &pipelineManager{c: c}
	h.cm = &connectionManager{c: c}
	return h.im, h.pm, h.cm
}

func (im *inventoryManager) conn() *sql.Conn {
	return im.c.Conn()
}

func (pm *pipelineManager) conn() *sql.Conn {
	return pm.c.Conn()
}

func (cm *connectionManager) Close(ctx context.Context) {
	cm.c.Close(ctx)
}

package audiostream

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"Omnipresence/internal/classifier"
	"Omnipresence/pkg/errors"
	"Omnipresence/pkg/geo"
	"Omnipresence/pkg/worker"
)

// classifyJob carries one buffer through the shared pool.
type classifyJob struct {
	pcm        []byte
	classifier classifier.Classifier
	result     chan classifier.Result
}

// Manager owns the upgrade path and the shared classification pool. One
// Manager serves every concurrent audio session.
type Manager struct {
	cfg        Config
	classifier classifier.Classifier
	trigger    SosTrigger
	pool       *worker.Pool
	upgrader   websocket.Upgrader
}

func NewManager(cfg Config, c classifier.Classifier, trigger SosTrigger) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Manager{
		cfg:        cfg,
		classifier: c,
		trigger:    trigger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	m.pool = worker.NewPool(cfg.Workers, cfg.QueueSize, func(_ context.Context, job worker.Job) error {
		j := job.(*classifyJob)
		j.result <- j.classifier.Classify(j.pcm)
		return nil
	})
	return m, nil
}

func (m *Manager) Start(ctx context.Context) {
	m.pool.Start(ctx)
}

func (m *Manager) Stop() {
	m.pool.Stop()
}

// classify dispatches to the pool and waits for the score. A copy of the
// buffer is taken so the session can keep appending while a worker reads.
func (m *Manager) classify(ctx context.Context, pcm []byte) (classifier.Result, error) {
	job := &classifyJob{
		pcm:        append([]byte(nil), pcm...),
		classifier: m.classifier,
		result:     make(chan classifier.Result, 1),
	}
	if err := m.pool.Submit(ctx, job); err != nil {
		return classifier.Result{}, errors.Wrap(err, "submit classification")
	}
	select {
	case <-ctx.Done():
		return classifier.Result{}, ctx.Err()
	case result := <-job.result:
		return result, nil
	}
}

// wsConn adapts a websocket connection to the session's write interface.
type wsConn struct {
	cfg  Config
	conn *websocket.Conn
}

func (w *wsConn) WriteStatus(msg StatusMessage) error {
	if w.cfg.WriteTimeout > 0 {
		_ = w.conn.SetWriteDeadline(time.Now().Add(w.cfg.WriteTimeout))
	}
	return w.conn.WriteJSON(msg)
}

// HandleAudioStream upgrades the request and runs the distress protocol until
// the client disconnects.
func (m *Manager) HandleAudioStream(c *gin.Context) {
	latitude, errLat := strconv.ParseFloat(c.Param("latitude"), 64)
	longitude, errLong := strconv.ParseFloat(c.Param("longitude"), 64)
	loc := geo.Point{Lat: latitude, Long: longitude}
	if errLat != nil || errLong != nil || !loc.Valid() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid coordinates"})
		return
	}

	ws, err := m.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warnf("websocket upgrade: %v", err)
		return
	}
	defer ws.Close()
	ws.SetReadLimit(m.cfg.MaxMessageSize)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	frames := make(chan frame, 8)
	go func() {
		defer close(frames)
		for {
			kind, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warnf("websocket read: %v", err)
				}
				return
			}
			select {
			case frames <- frame{kind: kind, data: data}:
			case <-ctx.Done():
				return
			}
		}
	}()

	session := &Session{
		cfg:       m.cfg,
		classify:  m.classify,
		trigger:   m.trigger,
		conn:      &wsConn{cfg: m.cfg, conn: ws},
		frames:    frames,
		UserID:    c.Param("user_id"),
		Username:  c.Param("username"),
		Latitude:  latitude,
		Longitude: longitude,
	}
	session.Run(ctx, websocket.BinaryMessage)
}

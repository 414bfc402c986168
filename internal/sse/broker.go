// Package sse entrega fragmentos HTML por Server-Sent Events, chaveados
// por recurso. A lista de posts assina "posts:all", a página de um post
// assina "post:{id}" e cada usuário logado tem o canal "user:{id}" para
// notificações de moderação e de jobs.
package sse

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PauloHFS/gothpress/internal/metrics"
)

const (
	maxClientsPerResource = 100
	maxGlobalClients      = 1000

	// Proxies derrubam conexão parada; o comentário periódico segura.
	heartbeatInterval = 30 * time.Second
)

type Client struct {
	Events chan string
}

type Broker struct {
	clients      map[string]map[*Client]bool
	mutex        sync.RWMutex
	closed       bool
	totalClients int
}

func NewBroker() *Broker {
	return &Broker{
		clients: make(map[string]map[*Client]bool),
	}
}

func resourceKey(resourceType, resourceID string) string {
	return resourceType + ":" + resourceID
}

func (b *Broker) Subscribe(resourceType, resourceID string) (*Client, error) {
	key := resourceKey(resourceType, resourceID)

	b.mutex.Lock()
	defer b.mutex.Unlock()

	switch {
	case b.closed:
		return nil, fmt.Errorf("broker is shutting down")
	case b.totalClients >= maxGlobalClients:
		return nil, fmt.Errorf("max global connections reached")
	case len(b.clients[key]) >= maxClientsPerResource:
		return nil, fmt.Errorf("max connections for resource reached")
	}

	if b.clients[key] == nil {
		b.clients[key] = make(map[*Client]bool)
	}

	client := &Client{Events: make(chan string, 100)}
	b.clients[key][client] = true
	b.totalClients++
	metrics.SSEConnections.Inc()
	return client, nil
}

func (b *Broker) Unsubscribe(client *Client, resourceType, resourceID string) {
	key := resourceKey(resourceType, resourceID)

	b.mutex.Lock()
	defer b.mutex.Unlock()

	bucket := b.clients[key]
	if !bucket[client] {
		return
	}

	delete(bucket, client)
	close(client.Events)
	if len(bucket) == 0 {
		delete(b.clients, key)
	}
	b.totalClients--
	metrics.SSEConnections.Dec()
}

// SendHTML envia um fragmento para todos os assinantes da chave. Clientes
// com o buffer cheio perdem o evento em vez de travar o emissor.
func (b *Broker) SendHTML(resourceType, resourceID, eventType, html string) {
	var msg strings.Builder
	fmt.Fprintf(&msg, "event: %s\n", eventType)
	for line := range strings.SplitSeq(html, "\n") {
		msg.WriteString("data: ")
		msg.WriteString(line)
		msg.WriteByte('\n')
	}
	msg.WriteByte('\n')
	message := msg.String()

	b.mutex.RLock()
	defer b.mutex.RUnlock()

	for client := range b.clients[resourceKey(resourceType, resourceID)] {
		select {
		case client.Events <- message:
		default:
		}
	}
}

// NotifyPost avisa quem está olhando a página do post (status de
// moderação, resumo pronto).
func (b *Broker) NotifyPost(postID int64, eventType, html string) {
	b.SendHTML("post", strconv.FormatInt(postID, 10), eventType, html)
}

// NotifyPostList avisa quem está na listagem de posts.
func (b *Broker) NotifyPostList(eventType, html string) {
	b.SendHTML("posts", "all", eventType, html)
}

// NotifyUser avisa um usuário específico em todas as abas abertas.
func (b *Broker) NotifyUser(userID int64, eventType, html string) {
	b.SendHTML("user", strconv.FormatInt(userID, 10), eventType, html)
}

// Shutdown fecha todos os canais. Os loops de streaming terminam ao ler
// o canal fechado; Subscribe passa a falhar.
func (b *Broker) Shutdown() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for key, clients := range b.clients {
		for client := range clients {
			close(client.Events)
		}
		delete(b.clients, key)
	}
	metrics.SSEConnections.Sub(float64(b.totalClients))
	b.totalClients = 0
}

// Stream segura a conexão aberta entregando eventos até o cliente sumir
// ou o broker fechar. Quem chama já fez a autorização e o Subscribe.
func (b *Broker) Stream(w http.ResponseWriter, r *http.Request, client *Client) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	fmt.Fprintf(w, ": ok\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case message, ok := <-client.Events:
			if !ok {
				return
			}
			fmt.Fprint(w, message)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

package sse

import (
	"strings"
	"testing"
)

func TestSubscribeEntrega(t *testing.T) {
	b := NewBroker()

	client, err := b.Subscribe("post", "1")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer b.Unsubscribe(client, "post", "1")

	b.NotifyPost(1, "moderation_update", "<span>aprovado</span>")

	select {
	case msg := <-client.Events:
		if !strings.Contains(msg, "event: moderation_update") {
			t.Errorf("mensagem sem o nome do evento: %q", msg)
		}
		if !strings.Contains(msg, "data: <span>aprovado</span>") {
			t.Errorf("mensagem sem o payload: %q", msg)
		}
	default:
		t.Fatal("nenhum evento entregue")
	}
}

func TestSendHTMLMultilinha(t *testing.T) {
	b := NewBroker()

	client, err := b.Subscribe("posts", "all")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer b.Unsubscribe(client, "posts", "all")

	b.NotifyPostList("post_created", "<li>\n  novo\n</li>")

	msg := <-client.Events
	want := "data: <li>\ndata:   novo\ndata: </li>"
	if !strings.Contains(msg, want) {
		t.Errorf("fragmento multilinha mal formatado:\n%q\nwant contendo:\n%q", msg, want)
	}
	if !strings.HasSuffix(msg, "\n\n") {
		t.Errorf("evento sem terminador em branco: %q", msg)
	}
}

func TestNotifyUserNaoVazaEntreUsuarios(t *testing.T) {
	b := NewBroker()

	alice, _ := b.Subscribe("user", "1")
	bob, _ := b.Subscribe("user", "2")
	defer b.Unsubscribe(alice, "user", "1")
	defer b.Unsubscribe(bob, "user", "2")

	b.NotifyUser(1, "job_completed", "moderate_post")

	select {
	case <-alice.Events:
	default:
		t.Error("alice não recebeu o próprio evento")
	}

	select {
	case msg := <-bob.Events:
		t.Errorf("bob recebeu evento de outro usuário: %q", msg)
	default:
	}
}

func TestUnsubscribeLiberaVaga(t *testing.T) {
	b := NewBroker()

	client, err := b.Subscribe("post", "9")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	b.Unsubscribe(client, "post", "9")

	if _, ok := <-client.Events; ok {
		t.Error("canal deveria estar fechado após Unsubscribe")
	}
	if b.totalClients != 0 {
		t.Errorf("totalClients = %d, want 0", b.totalClients)
	}

	// Unsubscribe repetido não pode fechar duas vezes nem corromper contagem
	b.Unsubscribe(client, "post", "9")
	if b.totalClients != 0 {
		t.Errorf("totalClients após repetição = %d, want 0", b.totalClients)
	}
}

func TestLimitePorRecurso(t *testing.T) {
	b := NewBroker()

	for range maxClientsPerResource {
		if _, err := b.Subscribe("post", "hot"); err != nil {
			t.Fatalf("Subscribe() dentro do limite falhou: %v", err)
		}
	}

	if _, err := b.Subscribe("post", "hot"); err == nil {
		t.Error("Subscribe() acima do limite por recurso deveria falhar")
	}

	// Outro recurso continua aceitando
	if _, err := b.Subscribe("post", "cold"); err != nil {
		t.Errorf("Subscribe() em outro recurso falhou: %v", err)
	}
}

func TestShutdownFechaTudo(t *testing.T) {
	b := NewBroker()

	client, _ := b.Subscribe("user", "3")

	b.Shutdown()

	if _, ok := <-client.Events; ok {
		t.Error("canal deveria fechar no Shutdown")
	}

	if _, err := b.Subscribe("post", "1"); err == nil {
		t.Error("Subscribe() após Shutdown deveria falhar")
	}

	// Shutdown repetido é inofensivo
	b.Shutdown()
}

func TestClienteLentoNaoTravaEmissor(t *testing.T) {
	b := NewBroker()

	client, _ := b.Subscribe("post", "5")
	defer b.Unsubscribe(client, "post", "5")

	// Estoura o buffer do canal; os excedentes são descartados
	for range 200 {
		b.NotifyPost(5, "tick", "x")
	}

	if got := len(client.Events); got != 100 {
		t.Errorf("buffer = %d, want 100", got)
	}
}

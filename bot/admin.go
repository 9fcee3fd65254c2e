package bot

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"

	"github.com/iyann1255/daftaren/impl/core"
)

// pending lists payments waiting for a decision, oldest first.
func (t *TgBot) pending(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveChat.Id
	if !t.requireAdmin(ctx.EffectiveUser.Id) {
		return nil
	}

	rctx, cancel := requestContext()
	defer cancel()

	list, err := t.core.PendingPayments(rctx)
	if err != nil {
		t.reportError(chatId, "/pending", err)
		return nil
	}

	for _, part := range splitMessage(pendingText(list), maxTelegramMessageLen) {
		t.plainResponse(chatId, part)
	}
	return nil
}

// export sends approved participants as a CSV document.
func (t *TgBot) export(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveChat.Id
	if !t.requireAdmin(ctx.EffectiveUser.Id) {
		return nil
	}

	rctx, cancel := requestContext()
	defer cancel()

	data, err := t.core.ExportCSV(rctx)
	if err != nil {
		t.reportError(chatId, "/export", err)
		return nil
	}

	name := fmt.Sprintf("peserta_approved_%s.csv", time.Now().UTC().Format("20060102_1504"))
	_, err = t.api.SendDocument(chatId, tgbotapi.InputFileByReader(name, bytes.NewReader(data)), &tgbotapi.SendDocumentOpts{
		Caption: "Peserta APPROVED",
	})
	if err != nil {
		t.reportError(chatId, "/export send", err)
	}
	return nil
}

func (t *TgBot) approve(_ *tgbotapi.Bot, ctx *ext.Context) error {
	return t.decideCommand(ctx, core.DecisionApprove)
}

func (t *TgBot) reject(_ *tgbotapi.Bot, ctx *ext.Context) error {
	return t.decideCommand(ctx, core.DecisionReject)
}

// decideCommand applies a decision by payment id, for proofs whose review
// message never reached anyone.
func (t *TgBot) decideCommand(ctx *ext.Context, decision core.Decision) error {
	chatId := ctx.EffectiveChat.Id
	actorId := ctx.EffectiveUser.Id
	if !t.requireAdmin(actorId) {
		return nil
	}

	command := "/approve"
	if decision == core.DecisionReject {
		command = "/reject"
	}
	args := strings.Fields(ctx.EffectiveMessage.Text)
	if len(args) < 2 {
		t.plainResponse(chatId, fmt.Sprintf("Usage: `%s <payment id>`", command))
		return nil
	}
	paymentId := args[1]

	rctx, cancel := requestContext()
	defer cancel()

	res, err := t.core.Decide(rctx, actorId, decision, paymentId)
	switch {
	case errors.Is(err, core.ErrPaymentNotFound):
		t.plainResponse(chatId, fmt.Sprintf("Payment `%s` tidak ditemukan\\.", Sanitize(paymentId)))
		return nil
	case errors.Is(err, core.ErrAlreadyDecided):
		t.plainResponse(chatId, fmt.Sprintf("Payment `%s` sudah diproses: %s\\.",
			Sanitize(paymentId), Sanitize(string(res.Payment.Status))))
		return nil
	case err != nil:
		t.reportError(chatId, command, err)
		return nil
	}

	text := fmt.Sprintf("%s\nPayment `%s` \\| %s \\| %s",
		Sanitize(decisionStatus(res.Payment.Status)),
		Sanitize(paymentId),
		Sanitize(res.Payment.NameIGN),
		Sanitize(displayName(res.Payment.Username, res.Payment.UserId)),
	)
	if res.NotifyErr != nil {
		text += "\n⚠️ User tidak bisa dihubungi\\."
	}
	t.plainResponse(chatId, text)
	return nil
}

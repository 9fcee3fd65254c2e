package bot

import (
	"errors"
	"log/slog"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"

	"github.com/iyann1255/daftaren/impl/core"
	"github.com/iyann1255/daftaren/impl/registration"
	"github.com/iyann1255/daftaren/lib/sl"
)

func (t *TgBot) start(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveChat.Id
	t.plainResponse(chatId, "Halo\\! Ketik /daftar untuk registrasi turnamen\\. "+
		"Setelah bayar, kirim *foto bukti transfer* ke sini\\.\n\nKetik /help untuk daftar perintah\\.")
	return nil
}

func (t *TgBot) help(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveChat.Id
	text := "*Perintah*\n" +
		"/daftar \\- mulai registrasi\n" +
		"/status \\- cek status pendaftaran\n" +
		"/bayar \\- tampilkan instruksi pembayaran\n" +
		"/batal \\- batalkan registrasi yang sedang diisi\n"
	if t.core.IsAdmin(ctx.EffectiveUser.Id) {
		text += "\n*Admin*\n" +
			"/pending \\- daftar bukti yang menunggu keputusan\n" +
			"/export \\- unduh CSV peserta approved\n" +
			"/approve `<payment id>` \\- setujui pembayaran\n" +
			"/reject `<payment id>` \\- tolak pembayaran\n"
	}
	t.plainResponse(chatId, text)
	return nil
}

// daftar opens the registration conversation.
func (t *TgBot) daftar(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if ctx.EffectiveChat.Type != "private" {
		t.plainResponse(ctx.EffectiveChat.Id, "Registrasi hanya lewat chat pribadi dengan bot\\.")
		return nil
	}
	user := ctx.EffectiveUser
	chatId := ctx.EffectiveChat.Id

	rctx, cancel := requestContext()
	defer cancel()

	reply, err := t.flow.Start(rctx, registration.Participant{
		UserId:   user.Id,
		ChatId:   chatId,
		Username: user.Username,
	})
	if err != nil {
		t.flowError(chatId, "/daftar", err)
		return nil
	}
	t.plainResponse(chatId, "📝 *Registrasi turnamen*")
	t.renderReply(chatId, reply)
	return nil
}

func (t *TgBot) status(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveChat.Id

	rctx, cancel := requestContext()
	defer cancel()

	user, err := t.core.Status(rctx, ctx.EffectiveUser.Id)
	if errors.Is(err, core.ErrNotRegistered) {
		t.plainResponse(chatId, "Kamu belum terdaftar\\. Ketik /daftar dulu\\.")
		return nil
	}
	if err != nil {
		t.reportError(chatId, "/status", err)
		return nil
	}
	t.plainResponse(chatId, statusText(user))
	return nil
}

// bayar repeats the payment instructions for users expected to pay.
func (t *TgBot) bayar(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveChat.Id

	rctx, cancel := requestContext()
	defer cancel()

	user, err := t.core.Status(rctx, ctx.EffectiveUser.Id)
	if errors.Is(err, core.ErrNotRegistered) {
		t.plainResponse(chatId, "Kamu belum terdaftar\\. Ketik /daftar dulu\\.")
		return nil
	}
	if err != nil {
		t.reportError(chatId, "/bayar", err)
		return nil
	}
	if !user.CanSubmitProof() {
		t.plainResponse(chatId, statusText(user))
		return nil
	}
	if err = t.PaymentInstructions(chatId, user); err != nil {
		t.log.With(slog.Int64("id", chatId)).Warn("sending payment instructions", sl.Err(err))
	}
	return nil
}

func (t *TgBot) batal(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveChat.Id

	rctx, cancel := requestContext()
	defer cancel()

	cancelled, err := t.flow.Cancel(rctx, ctx.EffectiveUser.Id)
	if err != nil {
		t.reportError(chatId, "/batal", err)
		return nil
	}
	if !cancelled {
		t.plainResponse(chatId, "Tidak ada registrasi yang sedang diisi\\.")
		return nil
	}
	t.plainResponse(chatId, "Registrasi dibatalkan\\.")
	return nil
}

// onText feeds private text into the registration conversation. Text from
// users without a session is ignored.
func (t *TgBot) onText(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveChat.Id

	rctx, cancel := requestContext()
	defer cancel()

	reply, err := t.flow.Input(rctx, ctx.EffectiveUser.Id, ctx.EffectiveMessage.Text)
	if err != nil {
		t.reportError(chatId, "registration input", err)
		return nil
	}
	if reply.Kind == registration.NoSession {
		return nil
	}
	t.renderReply(chatId, reply)
	return nil
}

// onPhoto accepts a payment proof.
func (t *TgBot) onPhoto(_ *tgbotapi.Bot, ctx *ext.Context) error {
	msg := ctx.EffectiveMessage
	user := ctx.EffectiveUser
	chatId := ctx.EffectiveChat.Id

	photo, ok := largestPhoto(msg.Photo)
	if !ok {
		return nil
	}

	rctx, cancel := requestContext()
	defer cancel()

	res, err := t.core.SubmitProof(rctx, core.Proof{
		UserId:      user.Id,
		ChatId:      chatId,
		Username:    user.Username,
		PhotoFileId: photo.FileId,
		SubmittedAt: time.Unix(msg.Date, 0),
	})
	switch {
	case errors.Is(err, core.ErrNotRegistered):
		t.plainResponse(chatId, "Kamu belum terdaftar\\. Ketik /daftar dulu, baru kirim bukti pembayaran\\.")
		return nil
	case errors.Is(err, core.ErrAlreadyPending):
		t.plainResponse(chatId, "Bukti kamu sedang dicek admin\\. Tunggu verifikasi ya, tidak perlu kirim ulang\\.")
		return nil
	case errors.Is(err, core.ErrAlreadyApproved):
		t.plainResponse(chatId, "Pembayaran kamu sudah diverifikasi\\. Cek /status untuk ticket kamu\\.")
		return nil
	case errors.Is(err, core.ErrNotEligible):
		t.plainResponse(chatId, "Bukti belum bisa diterima\\. Cek /status dulu\\.")
		return nil
	case errors.Is(err, core.ErrNoImage):
		return nil
	case err != nil:
		t.reportError(chatId, "proof", err)
		return nil
	}

	if res.Delivery == core.DeliveryFailed {
		t.plainResponse(chatId, "⚠️ Bukti tersimpan, tapi belum bisa diteruskan ke admin\\. "+
			"Admin akan mengecek daftar pending secara manual\\.")
		return nil
	}
	t.plainResponse(chatId, "✅ Oke, bukti udah kekirim ke admin\\. Tunggu verifikasi ya\\.")
	return nil
}

// renderReply shows the message for a registration step.
func (t *TgBot) renderReply(chatId int64, reply *registration.Reply) {
	switch reply.Kind {
	case registration.AskName:
		t.plainResponse(chatId, "Masukkan *Nama / IGN* kamu:")
	case registration.AskContact:
		t.plainResponse(chatId, "Masukkan nomor *WhatsApp* aktif \\(contoh: 08123456789\\):")
	case registration.Confirm:
		t.sendWithKeyboard(chatId, confirmText(reply.Session), buildConfirmKeyboard())
	case registration.InvalidName:
		t.plainResponse(chatId, "Nama minimal 3 dan maksimal 64 karakter\\. Coba lagi:")
	case registration.InvalidContact:
		t.plainResponse(chatId, "Nomor WhatsApp tidak valid\\. Gunakan format 08xxxxxxxxxx atau \\+62xxxxxxxxxx:")
	case registration.Committed:
		t.plainResponse(chatId, committedText(reply.User))
		if reply.Err != nil {
			t.plainResponse(chatId, "Instruksi pembayaran belum terkirim\\. Ketik /bayar untuk melihatnya\\.")
		}
	case registration.Cancelled:
		t.plainResponse(chatId, "Registrasi dibatalkan\\.")
	}
}

// flowError answers the entry guard refusals and reports anything else.
func (t *TgBot) flowError(chatId int64, command string, err error) {
	switch {
	case errors.Is(err, core.ErrAlreadyApproved):
		t.plainResponse(chatId, "Kamu sudah terdaftar dan pembayaran sudah diverifikasi\\. Cek /status\\.")
	case errors.Is(err, core.ErrAlreadyPending):
		t.plainResponse(chatId, "Bukti pembayaran kamu sedang dicek admin\\. Tunggu verifikasi ya\\.")
	default:
		t.reportError(chatId, command, err)
	}
}

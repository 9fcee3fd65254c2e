package bot

import (
	"fmt"
	"strings"

	"github.com/iyann1255/daftaren/entity"
	"github.com/iyann1255/daftaren/internal/config"
	"github.com/iyann1255/daftaren/lib/clock"
)

const (
	// Telegram limit for photo captions.
	maxCaptionLen = 1024

	statusMissing  = "⚠️ Status: data tidak ditemukan / sudah diproses."
	statusApproved = "✅ Status: APPROVED"
	statusRejected = "❌ Status: REJECTED"
)

// instructionsText renders the payment instructions in MarkdownV2.
func instructionsText(p config.Payment, user *entity.User) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*%s*\n\n", Sanitize(p.Title)))
	if user != nil && user.Ticket != "" {
		sb.WriteString(fmt.Sprintf("Ticket: `%s`\n", Sanitize(user.Ticket)))
	}
	if p.Amount != "" {
		sb.WriteString(fmt.Sprintf("Nominal: *%s*\n", Sanitize(p.Amount)))
	}
	sb.WriteString("\nSilakan lakukan pembayaran via salah satu metode di bawah:\n\n")
	sb.WriteString("🔹 *QRIS*\n_\\(scan QR di atas\\)_\n\n")
	if p.Dana != "" {
		sb.WriteString(fmt.Sprintf("🔹 *DANA*\n`%s`\n\n", Sanitize(p.Dana)))
	}
	for i, bank := range p.Banks {
		sb.WriteString(fmt.Sprintf("🔹 *BANK %d \\(%s\\)*\n`%s` a/n `%s`\n\n",
			i+1, Sanitize(bank.Name), Sanitize(bank.Account), Sanitize(bank.Holder)))
	}
	if p.Note != "" {
		sb.WriteString(Sanitize(p.Note) + "\n\n")
	}
	sb.WriteString("Setelah bayar, *kirim bukti foto ke bot ini*\\.\n")
	sb.WriteString("_Bukti akan diteruskan ke admin untuk verifikasi\\._")
	return sb.String()
}

// proofCaption is the plain text caption of a proof posted for review.
func proofCaption(p *entity.PendingPayment) string {
	username := "(tidak ada)"
	if p.Username != "" {
		username = "@" + p.Username
	}
	lines := []string{
		"🧾 BUKTI PEMBAYARAN MASUK",
		"- Nama: " + p.NameIGN,
		"- WA: " + p.WA,
		"- Username: " + username,
		"- Ticket: " + p.Ticket,
		fmt.Sprintf("- User ID: %d", p.UserId),
		"- Payment ID: " + p.PaymentId,
	}
	return strings.Join(lines, "\n")
}

// annotate appends a status line, trimming the original text so the result
// fits into a caption.
func annotate(text, status string) string {
	suffix := "\n\n" + status
	limit := maxCaptionLen - len(suffix)
	if len(text) > limit {
		text = strings.ToValidUTF8(text[:limit], "")
	}
	return text + suffix
}

func decisionStatus(status entity.Status) string {
	if status == entity.StatusApproved {
		return statusApproved
	}
	return statusRejected
}

func confirmText(s *entity.Session) string {
	return fmt.Sprintf("*Cek data pendaftaran kamu:*\n\nNama / IGN: *%s*\nWhatsApp: `%s`\n\nSudah benar?",
		Sanitize(s.NameIGN), Sanitize(s.WA))
}

func committedText(user *entity.User) string {
	return fmt.Sprintf("✅ Data tersimpan\\. Ticket kamu: `%s`\n\nSelesaikan pembayaran lalu kirim *foto bukti transfer* di chat ini\\.",
		Sanitize(user.Ticket))
}

func statusText(user *entity.User) string {
	var state string
	switch user.Status {
	case entity.StatusWaitProof:
		state = "Menunggu bukti pembayaran\\. Kirim foto bukti transfer di chat ini\\."
	case entity.StatusPending:
		state = "Bukti pembayaran sedang dicek admin\\."
	case entity.StatusApproved:
		state = "Pembayaran sudah diverifikasi\\. Kamu resmi masuk peserta\\."
	case entity.StatusRejected:
		state = "Bukti ditolak\\. Kirim ulang foto bukti yang jelas\\."
	default:
		state = "Pendaftaran belum selesai\\. Ketik /daftar\\."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*Status:* %s\n", Sanitize(string(user.Status))))
	sb.WriteString(fmt.Sprintf("Nama / IGN: %s\n", Sanitize(user.NameIGN)))
	sb.WriteString(fmt.Sprintf("WhatsApp: %s\n", Sanitize(user.WA)))
	if user.Ticket != "" {
		sb.WriteString(fmt.Sprintf("Ticket: `%s`\n", Sanitize(user.Ticket)))
	}
	sb.WriteString("\n" + state)
	return sb.String()
}

func approvedText(p *entity.PendingPayment) string {
	return fmt.Sprintf("✅ Pembayaran kamu sudah diverifikasi\\. Kamu resmi masuk peserta\\.\n\nTicket: `%s`",
		Sanitize(p.Ticket))
}

func rejectedText() string {
	return "❌ Bukti kamu ditolak admin\\. Cek lagi pembayaran/nominal, lalu kirim ulang bukti yang jelas\\."
}

// pendingText lists open payments for admins.
func pendingText(list []*entity.PendingPayment) string {
	if len(list) == 0 {
		return "Tidak ada pembayaran pending\\."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*Pending* \\(%d\\)\n\n", len(list)))
	for i, p := range list {
		sb.WriteString(fmt.Sprintf("%d\\. `%s` \\| %s \\| %s \\| %s \\| %s\n",
			i+1,
			Sanitize(p.PaymentId),
			Sanitize(p.NameIGN),
			Sanitize(p.WA),
			Sanitize(p.Ticket),
			Sanitize(clock.Format(p.CreatedAt)),
		))
	}
	sb.WriteString("\n`/approve <payment id>` atau `/reject <payment id>`")
	return sb.String()
}

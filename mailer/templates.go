package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

const brand = "Equipe Visionários"

var layout = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head><meta charset="UTF-8"><title>{{.Title}}</title></head>
<body>
  <div style="font-family: Arial, sans-serif; background-color: #f4f6f8; padding: 20px;">
    <table align="center" cellpadding="0" cellspacing="0" width="600" style="background-color: #ffffff; border-radius: 8px;">
      <tr><td align="center" bgcolor="#2e4fbb" style="padding: 20px;">
        <h1 style="color: #ffffff; margin: 0; font-size: 24px;">{{.Brand}}</h1>
      </td></tr>
      <tr><td style="padding: 30px; color: #333;">
        <h2 style="margin-top: 0;">Olá, {{.Name}}!</h2>
        {{- if .ResetURL}}
        <p style="font-size: 16px; line-height: 1.6;">Você solicitou a redefinição da sua senha.</p>
        <p style="font-size: 16px; line-height: 1.6;">Clique no botão abaixo para criar uma nova senha. O link expira em {{.ExpiresIn}}.</p>
        <p><a href="{{.ResetURL}}" style="background-color: #4CAF50; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Redefinir senha</a></p>
        <p style="font-size: 14px; color: #666;">Se você não solicitou, ignore este e-mail.</p>
        {{- else}}
        <p style="font-size: 16px; line-height: 1.6;">Seja muito bem-vindo a <strong>{{.Brand}}</strong>.</p>
        <p style="font-size: 16px; line-height: 1.6;">A partir de agora você tem acesso a uma plataforma moderna e prática para gerenciar <strong>imóveis</strong>.</p>
        {{- end}}
        <p style="font-size: 16px;">Atenciosamente,</p>
        <p style="font-weight: bold; font-size: 16px; margin: 0;">{{.Brand}}</p>
      </td></tr>
      <tr><td align="center" bgcolor="#f4f6f8" style="padding: 15px; font-size: 12px; color: #666;">
        <p style="margin: 0;">© {{.Year}} {{.Brand}} - Todos os direitos reservados</p>
      </td></tr>
    </table>
  </div>
</body>
</html>`))

type layoutData struct {
	Title     string
	Brand     string
	Name      string
	ResetURL  string
	ExpiresIn string
	Year      int
}

func render(data layoutData) (string, error) {
	data.Brand = brand
	data.Year = time.Now().Year()
	var buf bytes.Buffer
	if err := layout.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %q: %w", data.Title, err)
	}
	return buf.String(), nil
}

func WelcomeMessage(to, name string) (Message, error) {
	subject := "Bem-vindo a " + brand
	html, err := render(layoutData{Title: subject, Name: name})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: subject, HTML: html}, nil
}

func ResetPasswordMessage(to, name, resetURL string, ttl time.Duration) (Message, error) {
	subject := "Redefinição de senha " + brand
	html, err := render(layoutData{
		Title:     subject,
		Name:      name,
		ResetURL:  resetURL,
		ExpiresIn: fmt.Sprintf("%d minutos", int(ttl.Minutes())),
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: subject, HTML: html}, nil
}

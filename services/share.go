package services

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/equipe-visionarios/imoveis-api/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ShareLink builds a WhatsApp link that sends a summary of the property from
// the sharer's phone number.
func (s *PropertyService) ShareLink(ctx context.Context, sharer *models.User, id primitive.ObjectID) (string, error) {
	if sharer.Phone == "" {
		return "", models.NewValidationError(map[string]string{
			"phone": "Seu perfil não possui número de WhatsApp cadastrado",
		})
	}

	p, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return "", err
	}

	text := url.QueryEscape(shareMessage(p))
	text = strings.ReplaceAll(text, "+", "%20")
	return "https://wa.me/" + strings.TrimPrefix(sharer.Phone, "+") + "?text=" + text, nil
}

func shareMessage(p *models.Property) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏠 *%s*\n", p.Title)
	fmt.Fprintf(&b, "📍 Endereço: %s\n", p.Address)
	fmt.Fprintf(&b, "📌 Região: %s\n", p.Region)
	fmt.Fprintf(&b, "🛏️ Quartos: %d\n", p.Bedrooms)
	fmt.Fprintf(&b, "🚗 Vagas: %d\n", p.Garage)
	fmt.Fprintf(&b, "💰 Preço: R$ %s\n", formatBRL(p.Price))
	if p.Description != "" {
		fmt.Fprintf(&b, "ℹ️ Descrição: %s\n", p.Description)
	}
	return b.String()
}

// formatBRL renders v with "." thousands and "," decimal separators.
func formatBRL(v float64) string {
	cents := int64(math.Round(math.Abs(v) * 100))
	whole := strconv.FormatInt(cents/100, 10)

	var b strings.Builder
	if v < 0 {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	fmt.Fprintf(&b, ",%02d", cents%100)
	return b.String()
}

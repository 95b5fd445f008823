package view

import (
	"fmt"

	"storefront/internal/domain"
)

// Feature - карточка преимущества на главной
type Feature struct {
	Icon        string
	Title       string
	Description string
}

// LandingContent - статический контент главной страницы
type LandingContent struct {
	Brand    string
	Headline string
	Tagline  string
	Features []Feature
	Year     int
}

// DefaultLanding - тексты маркетинговой страницы
func DefaultLanding() LandingContent {
	return LandingContent{
		Brand:    "GrocerySet",
		Headline: "Grocery Delivery Made Easy",
		Tagline:  "Fresh groceries from nearby supermarkets delivered right to your society or apartment",
		Features: []Feature{
			{Icon: "/icons/local-stores.png", Title: "Local Stores", Description: "Connect with nearby supermarkets and grocery stores"},
			{Icon: "/icons/fast-delivery.png", Title: "Quick Delivery", Description: "Swift delivery to your society or apartment"},
			{Icon: "/icons/fresh-products.png", Title: "Fresh Products", Description: "Quality groceries and fresh produce"},
		},
		Year: 2024,
	}
}

// Copyright - строка подвала
func (c LandingContent) Copyright() string {
	return fmt.Sprintf("© %d %s. All rights reserved.", c.Year, c.Brand)
}

// LoginView - данные для страницы входа.
// Без JS кнопки отправки блокируются только на время запроса,
// длину ввода проверяют pattern у input и сервер.
type LoginView struct {
	State  domain.LoginState
	Notice string
	Error  string
}

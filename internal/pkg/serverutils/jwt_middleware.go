package serverutils

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JwtMiddleware verifies the bearer token and stashes the claims the
// controllers need into request locals.
func JwtMiddleware(ctx *fiber.Ctx) error {
	authHeader := ctx.Get("Authorization")
	if authHeader == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse("missing authorization header"))
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse("malformed authorization header"))
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_secret"
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse("invalid or expired token"))
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse("invalid token claims"))
	}

	userID, _ := claims["user_id"].(string)
	fullName, _ := claims["full_name"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	ctx.Locals("user_id", userID)
	ctx.Locals("full_name", fullName)
	ctx.Locals("email", email)
	ctx.Locals("role", role)

	return ctx.Next()
}

// AdminOnly restricts a route group to admin accounts. Must run after
// JwtMiddleware.
func AdminOnly(ctx *fiber.Ctx) error {
	role, _ := ctx.Locals("role").(string)
	if role != "admin" {
		return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse("admin access required"))
	}
	return ctx.Next()
}

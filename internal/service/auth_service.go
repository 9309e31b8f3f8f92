package service

import (
	"context"
	"time"

	"festival-cms-be/internal/config"
	"festival-cms-be/internal/dto"
	"festival-cms-be/internal/entity"
	"festival-cms-be/internal/pkg/apperror"
	"festival-cms-be/internal/repository/contract"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
}

type authService struct {
	userRepo contract.UserRepository
	jwtCfg   config.JWTConfig
}

func NewAuthService(userRepo contract.UserRepository, jwtCfg config.JWTConfig) IAuthService {
	return &authService{
		userRepo: userRepo,
		jwtCfg:   jwtCfg,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	const op = "auth.Register"

	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.Classify(op, err)
	}
	if existing != nil {
		return nil, apperror.New(apperror.KindConflict, op, "email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Classify(op, err)
	}

	role := entity.UserRoleReviewer
	if req.Role == string(entity.UserRoleAdmin) {
		role = entity.UserRoleAdmin
	}

	user := &entity.User{
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}

	id, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, apperror.Classify(op, err)
	}
	return &dto.RegisterResponse{Id: id}, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	const op = "auth.Login"

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.Classify(op, err)
	}
	if user == nil {
		return nil, apperror.New(apperror.KindPermissionDenied, op, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperror.New(apperror.KindPermissionDenied, op, "invalid credentials")
	}
	if !user.IsActive {
		return nil, apperror.New(apperror.KindPermissionDenied, op, "account is deactivated")
	}

	userID := ""
	if user.ID != nil {
		userID = user.RecordKey()
	}

	claims := jwt.MapClaims{
		"user_id":   userID,
		"full_name": user.FullName,
		"email":     user.Email,
		"role":      string(user.Role),
		"exp":       time.Now().Add(time.Duration(s.jwtCfg.TTLHours) * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(s.jwtCfg.Secret))
	if err != nil {
		return nil, apperror.Classify(op, err)
	}

	return &dto.LoginResponse{
		Token:    signedToken,
		Id:       userID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     string(user.Role),
	}, nil
}

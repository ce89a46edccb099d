package service

import (
	"errors"
	"strings"
	"time"

	"github.com/petcare-next/internal/config"
	"github.com/petcare-next/internal/constants"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenInvalid 令牌无效
var ErrTokenInvalid = errors.New("invalid token")

// AuthService 令牌服务。令牌由账号系统签发，本服务负责校验；
// 签发仅用于本地种子数据与测试。
type AuthService struct {
	cfg config.JWTConfig
}

// NewAuthService 创建令牌服务实例
func NewAuthService(cfg config.JWTConfig) *AuthService {
	return &AuthService{cfg: cfg}
}

// AccountClaims 账号令牌声明
type AccountClaims struct {
	AccountID uint   `json:"account_id"`
	Role      string `json:"role"`
	BranchID  uint   `json:"branch_id,omitempty"`
	jwt.RegisteredClaims
}

// AccountIdentity 签发令牌所需的账号信息
type AccountIdentity struct {
	AccountID uint
	Role      string
	BranchID  uint
}

// IsKnownRole 判断角色是否为系统角色
func IsKnownRole(role string) bool {
	switch role {
	case constants.RoleCustomer, constants.RoleAdmin, constants.RoleVeterinarian, constants.RoleReceptionist, constants.RoleSales:
		return true
	default:
		return false
	}
}

// IsStaffRole 判断是否为门店员工角色
func IsStaffRole(role string) bool {
	switch role {
	case constants.RoleAdmin, constants.RoleVeterinarian, constants.RoleReceptionist, constants.RoleSales:
		return true
	default:
		return false
	}
}

// GenerateJWT 生成 JWT Token
func (s *AuthService) GenerateJWT(identity AccountIdentity) (string, time.Time, error) {
	role := strings.ToLower(strings.TrimSpace(identity.Role))
	if identity.AccountID == 0 || !IsKnownRole(role) {
		return "", time.Time{}, ErrTokenInvalid
	}
	now := time.Now()
	expireHours := s.cfg.ExpireHours
	if expireHours <= 0 {
		expireHours = 12
	}
	expiresAt := now.Add(time.Duration(expireHours) * time.Hour)

	claims := AccountClaims{
		AccountID: identity.AccountID,
		Role:      role,
		BranchID:  identity.BranchID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// ParseJWT 解析 JWT Token，账号 ID 缺失或角色未知时视为无效
func (s *AuthService) ParseJWT(tokenString string) (*AccountClaims, error) {
	return ParseAccountToken(s.cfg.SecretKey, s.cfg.Issuer, tokenString)
}

// ParseAccountToken 按密钥与签发方校验令牌
func ParseAccountToken(secretKey, issuer, tokenString string) (*AccountClaims, error) {
	options := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if strings.TrimSpace(issuer) != "" {
		options = append(options, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenString, &AccountClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*AccountClaims)
	if !ok || !token.Valid || claims.AccountID == 0 || !IsKnownRole(claims.Role) {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Package secrets resolves runtime credentials from AWS SSM Parameter
// Store so the HubSpot token never has to live in plaintext env or flags.
package secrets

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/cospark/hubspot-proxy/internal/log"
	"github.com/cospark/hubspot-proxy/internal/xerrors"
)

// SSMClient is the subset of the SSM API the resolver needs.
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type ResolverOptions struct {
	Client SSMClient
	Logger log.Logger
}

type Resolver struct {
	client SSMClient
	logger log.Logger
}

func NewResolver(opts ResolverOptions) (*Resolver, error) {
	if opts.Client == nil {
		return nil, xerrors.New("Client is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	return &Resolver{client: opts.Client, logger: opts.Logger}, nil
}

// Fetch reads a decrypted parameter value. The value itself is never
// logged; only the parameter name appears in diagnostics.
func (r *Resolver) Fetch(ctx context.Context, param string) (string, error) {
	if param == "" {
		return "", xerrors.New("parameter name is required")
	}

	out, err := r.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(param),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", xerrors.Wrapf(err, "get SSM parameter %s", param)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", xerrors.Newf("SSM parameter %s has no value", param)
	}

	val := strings.TrimSpace(*out.Parameter.Value)
	if val == "" {
		return "", xerrors.Newf("SSM parameter %s is empty", param)
	}

	r.logger.Info(ctx, "resolved secret from SSM", "param", param)
	return val, nil
}

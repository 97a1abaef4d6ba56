package config

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// LoadSSMParameters overlays every parameter stored below parameterPath onto config.
// Values already present in the environment win, so a local .env can still override a deployed secret.
func LoadSSMParameters(ctx context.Context, config map[string]string, parameterPath string) (int, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return MergeParameters(ctx, ssm.NewFromConfig(awsCfg), config, parameterPath)
}

// MergeParameters pages through parameterPath and returns how many keys were added.
func MergeParameters(ctx context.Context, client ssm.GetParametersByPathAPIClient, config map[string]string, parameterPath string) (int, error) {
	paginator := ssm.NewGetParametersByPathPaginator(client, &ssm.GetParametersByPathInput{
		Path:           aws.String(parameterPath),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})

	added := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return added, fmt.Errorf("failed to read SSM parameters under %s: %w", parameterPath, err)
		}

		for _, parameter := range page.Parameters {
			key := ParameterKey(aws.ToString(parameter.Name))
			if key == "" {
				continue
			}
			if existing, ok := config[key]; ok && existing != "" {
				continue
			}
			config[key] = aws.ToString(parameter.Value)
			added++
		}
	}

	return added, nil
}

// ParameterKey maps "/portfolio/prod/resend-api-key" to "RESEND_API_KEY".
func ParameterKey(name string) string {
	base := path.Base(strings.TrimSpace(name))
	if base == "." || base == "/" {
		return ""
	}
	return strings.ToUpper(strings.ReplaceAll(base, "-", "_"))
}

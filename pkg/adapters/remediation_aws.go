package adapters

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/forge-sre/forge/pkg/ferrors"
)

// AWSRemediationAdapter is the concrete RemediationAdapter: ScaleService
// updates an ECS service's desired count, UpdateParameter writes an SSM
// parameter, and RollbackDeployment forces a fresh ECS deployment of the
// service's current task definition (the nearest ECS-native equivalent of
// the original's rollback action — ECS has no separate "previous revision"
// pointer to roll back to without an external deployment history, so this
// redeploys the stable task definition already registered for the service).
type AWSRemediationAdapter struct {
	ecsClient *ecs.Client
	ssmClient *ssm.Client
}

// NewAWSRemediationAdapter loads the default AWS config (env vars, shared
// config file, or the instance/task role) for the given region.
func NewAWSRemediationAdapter(ctx context.Context, region string) (*AWSRemediationAdapter, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, ferrors.New(ferrors.KindRemediation, "remediation.NewAWSAdapter", err)
	}
	return &AWSRemediationAdapter{
		ecsClient: ecs.NewFromConfig(cfg),
		ssmClient: ssm.NewFromConfig(cfg),
	}, nil
}

func (a *AWSRemediationAdapter) ScaleService(ctx context.Context, cluster, service string, desired int, reason string) (ActionResult, error) {
	_, err := a.ecsClient.UpdateService(ctx, &ecs.UpdateServiceInput{
		Cluster:      aws.String(cluster),
		Service:      aws.String(service),
		DesiredCount: aws.Int32(int32(desired)),
	})
	res := ActionResult{
		ActionType: "scale_ecs",
		Service:    service,
		Reason:     reason,
		Succeeded:  err == nil,
		Detail: map[string]any{
			"cluster":       cluster,
			"desired_count": desired,
		},
	}
	if err != nil {
		res.Detail["error"] = err.Error()
		return res, ferrors.New(ferrors.KindRemediation, "remediation.ScaleService", err)
	}
	return res, nil
}

func (a *AWSRemediationAdapter) RollbackDeployment(ctx context.Context, app, group, reason string) (ActionResult, error) {
	_, err := a.ecsClient.UpdateService(ctx, &ecs.UpdateServiceInput{
		Cluster:            aws.String(group),
		Service:            aws.String(app),
		ForceNewDeployment: true,
	})
	res := ActionResult{
		ActionType: "rollback_deployment",
		Service:    app,
		Reason:     reason,
		Succeeded:  err == nil,
		Detail: map[string]any{
			"deployment_group": group,
		},
	}
	if err != nil {
		res.Detail["error"] = err.Error()
		return res, ferrors.New(ferrors.KindRemediation, "remediation.RollbackDeployment", err)
	}
	return res, nil
}

func (a *AWSRemediationAdapter) UpdateParameter(ctx context.Context, name, value, desc, service string) (ActionResult, error) {
	_, err := a.ssmClient.PutParameter(ctx, &ssm.PutParameterInput{
		Name:        aws.String(name),
		Value:       aws.String(value),
		Type:        ssmtypes.ParameterTypeString,
		Description: aws.String(desc),
		Overwrite:   aws.Bool(true),
	})
	res := ActionResult{
		ActionType: "update_ssm",
		Service:    service,
		Reason:     desc,
		Succeeded:  err == nil,
		Detail: map[string]any{
			"parameter_name":  name,
			"parameter_value": value,
		},
	}
	if err != nil {
		res.Detail["error"] = err.Error()
		return res, ferrors.New(ferrors.KindRemediation, "remediation.UpdateParameter", err)
	}
	return res, nil
}

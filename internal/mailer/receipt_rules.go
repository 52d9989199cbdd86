package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// ruleSetName is the single active receipt rule set this core manages. SES allows
// only one active rule set account-wide; every domain's rule lives in it.
const ruleSetName = "inbound-core-rules"

// RuleStatus is the outcome of a ReceiptRuleManager operation.
type RuleStatus string

const (
	RuleStatusCreated RuleStatus = "created"
	RuleStatusUpdated RuleStatus = "updated"
	RuleStatusRemoved RuleStatus = "removed"
)

// RuleResult is returned by every ReceiptRuleManager operation.
type RuleResult struct {
	Status   RuleStatus
	RuleName string
}

func individualRuleName(domain string) string {
	return fmt.Sprintf("inbound-individual-%s", domain)
}

func catchAllRuleName(domain string) string {
	return fmt.Sprintf("inbound-catchall-%s", domain)
}

func (c *Client) lambdaAction() types.ReceiptAction {
	return types.ReceiptAction{
		LambdaAction: &types.LambdaAction{
			FunctionArn:    aws.String(c.processingFunctionID),
			InvocationType: types.InvocationTypeEvent,
		},
	}
}

// EnableIndividual ensures a rule exists that accepts exactly addresses for domain
//. Idempotent: creates if absent, replaces recipients/actions if present.
func (c *Client) EnableIndividual(ctx context.Context, domain string, addresses []string) (*RuleResult, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	name := individualRuleName(domain)
	rule := &types.ReceiptRule{
		Name:        aws.String(name),
		Enabled:     true,
		Recipients:  addresses,
		ScanEnabled: aws.Bool(true),
		Actions:     []types.ReceiptAction{c.lambdaAction()},
	}

	return c.upsertRule(ctx, name, rule)
}

// EnableCatchAll replaces the individual rule for domain with a catch-all rule
// accepting the whole domain. endpointID is accepted for signature
// parity with the spec's operation contract; routing itself is resolved at
// delivery time from the Domain row, not baked into the mailer-side rule.
func (c *Client) EnableCatchAll(ctx context.Context, domain string, endpointID string) (*RuleResult, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	_ = c.deleteRule(ctx, individualRuleName(domain))

	name := catchAllRuleName(domain)
	rule := &types.ReceiptRule{
		Name:        aws.String(name),
		Enabled:     true,
		Recipients:  []string{domain},
		ScanEnabled: aws.Bool(true),
		Actions:     []types.ReceiptAction{c.lambdaAction()},
	}

	return c.upsertRule(ctx, name, rule)
}

// DisableCatchAll removes the catch-all rule for domain. If addresses is non-empty
// (EmailAddress rows still exist for the domain) it immediately restores individual
// acceptance for them.
func (c *Client) DisableCatchAll(ctx context.Context, domain string, addresses []string) (*RuleResult, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.deleteRule(ctx, catchAllRuleName(domain)); err != nil {
		return nil, err
	}

	if len(addresses) == 0 {
		return &RuleResult{Status: RuleStatusRemoved, RuleName: ""}, nil
	}

	name := individualRuleName(domain)
	rule := &types.ReceiptRule{
		Name:        aws.String(name),
		Enabled:     true,
		Recipients:  addresses,
		ScanEnabled: aws.Bool(true),
		Actions:     []types.ReceiptAction{c.lambdaAction()},
	}
	return c.upsertRule(ctx, name, rule)
}

// RemoveAll removes any rule (individual or catch-all) for domain.
func (c *Client) RemoveAll(ctx context.Context, domain string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	errIndividual := c.deleteRule(ctx, individualRuleName(domain))
	errCatchAll := c.deleteRule(ctx, catchAllRuleName(domain))
	return errors.Join(errIndividual, errCatchAll)
}

func (c *Client) upsertRule(ctx context.Context, name string, rule *types.ReceiptRule) (*RuleResult, error) {
	_, describeErr := c.ses.DescribeReceiptRule(ctx, &ses.DescribeReceiptRuleInput{
		RuleSetName: aws.String(ruleSetName),
		RuleName:    aws.String(name),
	})

	if describeErr != nil {
		var notFound *types.RuleDoesNotExistException
		if !errors.As(describeErr, &notFound) {
			return nil, fmt.Errorf("describe receipt rule %s: %w", name, describeErr)
		}
		if _, err := c.ses.CreateReceiptRule(ctx, &ses.CreateReceiptRuleInput{
			RuleSetName: aws.String(ruleSetName),
			Rule:        rule,
		}); err != nil {
			return nil, fmt.Errorf("create receipt rule %s: %w", name, err)
		}
		return &RuleResult{Status: RuleStatusCreated, RuleName: name}, nil
	}

	if _, err := c.ses.UpdateReceiptRule(ctx, &ses.UpdateReceiptRuleInput{
		RuleSetName: aws.String(ruleSetName),
		Rule:        rule,
	}); err != nil {
		return nil, fmt.Errorf("update receipt rule %s: %w", name, err)
	}
	return &RuleResult{Status: RuleStatusUpdated, RuleName: name}, nil
}

func (c *Client) deleteRule(ctx context.Context, name string) error {
	_, err := c.ses.DeleteReceiptRule(ctx, &ses.DeleteReceiptRuleInput{
		RuleSetName: aws.String(ruleSetName),
		RuleName:    aws.String(name),
	})
	if err != nil {
		var notFound *types.RuleDoesNotExistException
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("delete receipt rule %s: %w", name, err)
	}
	return nil
}

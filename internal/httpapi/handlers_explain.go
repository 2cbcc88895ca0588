package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"gridshift-gate/internal/httpapi/middleware"
	"gridshift-gate/internal/model"
)

const explainMinInterval = 1500 * time.Millisecond

type explainRequest struct {
	Decision model.DecisionRecord `json:"decision" binding:"required"`
}

// handleExplainDecision produces a deterministic markdown post-mortem
// from a decision record's own fields — no LLM key is ever configured
// in this deployment shape, so the explainer always takes the
// template path. Rate-limited to one call per 1.5s per process since a
// real LLM-backed explainer would be; the limit is enforced here too
// so behavior doesn't change when a key is later wired in.
func (a *App) handleExplainDecision(c *gin.Context) {
	if !a.explainAllowed() {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": gin.H{"code": "RATE_LIMITED", "message": "explain/decision allows one call per 1.5s"}})
		return
	}

	var body explainRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		middleware.InputError(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"markdown": explainMarkdown(body.Decision)})
}

func (a *App) explainAllowed() bool {
	a.explainMu.Lock()
	defer a.explainMu.Unlock()
	now := time.Now()
	if !a.lastExplainCall.IsZero() && now.Sub(a.lastExplainCall) < explainMinInterval {
		return false
	}
	a.lastExplainCall = now
	return true
}

func explainMarkdown(d model.DecisionRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Decision %s\n\n", d.DecisionID)
	fmt.Fprintf(&b, "Requested a %.1f kW power shift against a %.1f kW site load, ", d.RequestedDeltaPKW, d.SiteLoadKW)
	fmt.Fprintf(&b, "with grid headroom %.1f kW (source: %s).\n\n", d.GridHeadroomKW, d.HeadroomSource)

	if d.Blocked {
		fmt.Fprintf(&b, "**Blocked** by `%s`", d.ReasonCode)
		if d.PrimaryConstraint != "" {
			fmt.Fprintf(&b, " on the %s constraint", d.PrimaryConstraint)
		}
		if d.ConstraintValue != nil && d.ConstraintThreshold != nil {
			fmt.Fprintf(&b, " (%.3f vs threshold %.3f)", *d.ConstraintValue, *d.ConstraintThreshold)
		}
		b.WriteString(".\n")
	} else {
		fmt.Fprintf(&b, "**Approved** %.1f kW at confidence %.2f.\n", d.ApprovedDeltaPKW, d.Confidence)
	}
	return b.String()
}

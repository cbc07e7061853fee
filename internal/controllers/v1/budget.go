package v1

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parish-ledger/backend/internal/budget"
	"github.com/parish-ledger/backend/internal/httputil"
	"github.com/parish-ledger/backend/internal/models"
	"golang.org/x/exp/slices"
)

// RegisterBudgetRoutes registers the routes for budget periods, allocations
// and execution reports with the RouterGroup that is passed.
func RegisterBudgetRoutes(r *gin.RouterGroup) {
	periods := r.Group("/periods")
	{
		periods.OPTIONS("", OptionsBudgetPeriodList)
		periods.GET("", GetBudgetPeriods)
		periods.POST("", CreateBudgetPeriods)

		periods.OPTIONS("/:id", OptionsBudgetPeriodDetail)
		periods.GET("/:id", GetBudgetPeriod)
		periods.PATCH("/:id", UpdateBudgetPeriod)
		periods.DELETE("/:id", DeleteBudgetPeriod)
	}

	allocations := r.Group("/allocations")
	{
		allocations.OPTIONS("", OptionsBudgetAllocationList)
		allocations.GET("", GetBudgetAllocations)
		allocations.POST("", CreateBudgetAllocations)

		allocations.OPTIONS("/:id", OptionsBudgetAllocationDetail)
		allocations.GET("/:id", GetBudgetAllocation)
		allocations.PATCH("/:id", UpdateBudgetAllocation)
		allocations.DELETE("/:id", DeleteBudgetAllocation)
	}

	execution := r.Group("/execution")
	{
		execution.OPTIONS("/:id", OptionsBudgetExecution)
		execution.GET("/:id", GetBudgetExecution)
	}
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Budget
// @Success		204
// @Router			/v1/budget/periods [options]
func OptionsBudgetPeriodList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Budget
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/budget/periods/{id} [options]
func OptionsBudgetPeriodDetail(c *gin.Context) {
	resourceOptionsDetail(c, models.BudgetPeriod{})
}

// @Summary		Create budget periods
// @Description	Creates new budget periods
// @Tags			Budget
// @Produce		json
// @Success		201		{object}	BudgetPeriodCreateResponse
// @Failure		400		{object}	BudgetPeriodCreateResponse
// @Failure		500		{object}	BudgetPeriodCreateResponse
// @Param			periods	body		[]BudgetPeriodEditable	true	"Budget periods"
// @Router			/v1/budget/periods [post]
func CreateBudgetPeriods(c *gin.Context) {
	var editables []BudgetPeriodEditable

	// Bind data and return error if not possible
	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BudgetPeriodCreateResponse{
			Error: &e,
		})
		return
	}

	// The final http status. Will be modified when errors occur
	status := http.StatusCreated
	r := BudgetPeriodCreateResponse{}

	for _, editable := range editables {
		period := editable.model()

		err = models.DB.Create(&period).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newBudgetPeriod(c, period)
		r.Data = append(r.Data, BudgetPeriodResponse{Data: &data})
	}

	c.JSON(status, r)
}

// @Summary		Get budget periods
// @Description	Returns a list of budget periods
// @Tags			Budget
// @Produce		json
// @Success		200	{object}	BudgetPeriodListResponse
// @Failure		400	{object}	BudgetPeriodListResponse
// @Failure		500	{object}	BudgetPeriodListResponse
// @Router			/v1/budget/periods [get]
// @Param			name		query	string	false	"Filter by name"
// @Param			type		query	string	false	"Filter by period type"
// @Param			currency	query	string	false	"Filter by currency"
// @Param			offset		query	uint	false	"The offset of the first period returned. Defaults to 0."
// @Param			limit		query	int		false	"Maximum number of periods to return. Defaults to 50."
func GetBudgetPeriods(c *gin.Context) {
	var filter BudgetPeriodQueryFilter

	// Every parameter is bound into a string, so this will always succeed
	_ = c.Bind(&filter)

	// Get the fields that we are filtering for
	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	q := models.DB.
		Order("datetime(start_date) DESC").
		Where(filter.model(), queryFields...)

	if filter.Name != "" {
		q = q.Where("name LIKE ?", fmt.Sprintf("%%%s%%", filter.Name))
	} else if slices.Contains(setFields, "Name") {
		q = q.Where("name = ''")
	}

	// Set the offset. Does not need checking since the default is 0
	q = q.Offset(int(filter.Offset))

	// Default to 50 periods and set the limit
	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var periods []models.BudgetPeriod
	err := q.Find(&periods).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BudgetPeriodListResponse{
			Error: &e,
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BudgetPeriodListResponse{
			Error: &e,
		})
		return
	}

	data := make([]BudgetPeriod, 0, len(periods))
	for _, period := range periods {
		data = append(data, newBudgetPeriod(c, period))
	}

	c.JSON(http.StatusOK, BudgetPeriodListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Get budget period
// @Description	Returns a specific budget period
// @Tags			Budget
// @Produce		json
// @Success		200	{object}	BudgetPeriodResponse
// @Failure		400	{object}	BudgetPeriodResponse
// @Failure		404	{object}	BudgetPeriodResponse
// @Failure		500	{object}	BudgetPeriodResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/budget/periods/{id} [get]
func GetBudgetPeriod(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BudgetPeriodResponse{
			Error: &e,
		})
		return
	}

	var period models.BudgetPeriod
	err = models.DB.First(&period, "id = ?", uri.ID.UUID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BudgetPeriodResponse{
			Error: &e,
		})
		return
	}

	data := newBudgetPeriod(c, period)
	c.JSON(http.StatusOK, BudgetPeriodResponse{Data: &data})
}

// @Summary		Update budget period
// @Description	Updates an existing budget period. The date range is frozen once allocations exist.
// @Tags			Budget
// @Accept			json
// @Produce		json
// @Success		200		{object}	BudgetPeriodResponse
// @Failure		400		{object}	BudgetPeriodResponse
// @Failure		404		{object}	BudgetPeriodResponse
// @Failure		409		{object}	BudgetPeriodResponse
// @Failure		500		{object}	BudgetPeriodResponse
// @Param			id		path		URIID					true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			period	body		BudgetPeriodEditable	true	"Budget period"
// @Router			/v1/budget/periods/{id} [patch]
func UpdateBudgetPeriod(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BudgetPeriodResponse{
			Error: &e,
		})
		return
	}

	var period models.BudgetPeriod
	err = models.DB.First(&period, "id = ?", uri.ID.UUID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BudgetPeriodResponse{
			Error: &e,
		})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, BudgetPeriodEditable{})
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BudgetPeriodResponse{
			Error: &e,
		})
		return
	}

	var data BudgetPeriodEditable
	err = httputil.BindData(c, &data)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BudgetPeriodResponse{
			Error: &e,
		})
		return
	}

	// Merge the set fields onto the loaded period so that the hooks
	// validate the full resulting resource
	if fieldSet(updateFields, "Name") {
		period.Name = data.Name
	}
	if fieldSet(updateFields, "Type") {
		period.Type = data.Type
	}
	if fieldSet(updateFields, "StartDate") {
		period.StartDate = data.StartDate
	}
	if fieldSet(updateFields, "EndDate") {
		period.EndDate = data.EndDate
	}
	if fieldSet(updateFields, "Currency") {
		period.Currency = data.Currency
	}

	err = models.DB.Save(&period).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BudgetPeriodResponse{
			Error: &e,
		})
		return
	}

	r := newBudgetPeriod(c, period)
	c.JSON(http.StatusOK, BudgetPeriodResponse{Data: &r})
}

// @Summary		Delete budget period
// @Description	Deletes a budget period. Fails while allocations still reference it.
// @Tags			Budget
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		409	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/budget/periods/{id} [delete]
func DeleteBudgetPeriod(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	var period models.BudgetPeriod
	err = models.DB.First(&period, "id = ?", uri.ID.UUID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.Delete(&period).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Budget
// @Success		204
// @Router			/v1/budget/allocations [options]
func OptionsBudgetAllocationList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Budget
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/budget/allocations/{id} [options]
func OptionsBudgetAllocationDetail(c *gin.Context) {
	resourceOptionsDetail(c, models.BudgetAllocation{})
}

// @Summary		Create budget allocations
// @Description	Creates new budget allocations
// @Tags			Budget
// @Produce		json
// @Success		201			{object}	BudgetAllocationCreateResponse
// @Failure		400			{object}	BudgetAllocationCreateResponse
// @Failure		404			{object}	BudgetAllocationCreateResponse
// @Failure		409			{object}	BudgetAllocationCreateResponse
// @Failure		500			{object}	BudgetAllocationCreateResponse
// @Param			allocations	body		[]BudgetAllocationEditable	true	"Budget allocations"
// @Router			/v1/budget/allocations [post]
func CreateBudgetAllocations(c *gin.Context) {
	var editables []BudgetAllocationEditable

	// Bind data and return error if not possible
	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BudgetAllocationCreateResponse{
			Error: &e,
		})
		return
	}

	// The final http status. Will be modified when errors occur
	status := http.StatusCreated
	r := BudgetAllocationCreateResponse{}

	for _, editable := range editables {
		allocation := editable.model()

		err = models.DB.Create(&allocation).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newBudgetAllocation(c, allocation)
		r.Data = append(r.Data, BudgetAllocationResponse{Data: &data})
	}

	c.JSON(status, r)
}

// @Summary		Get budget allocations
// @Description	Returns a list of budget allocations
// @Tags			Budget
// @Produce		json
// @Success		200	{object}	BudgetAllocationListResponse
// @Failure		400	{object}	BudgetAllocationListResponse
// @Failure		500	{object}	BudgetAllocationListResponse
// @Router			/v1/budget/allocations [get]
// @Param			period		query	string	false	"Filter by budget period ID"
// @Param			ministry	query	string	false	"Filter by ministry ID"
// @Param			category	query	string	false	"Filter by category ID"
// @Param			offset		query	uint	false	"The offset of the first allocation returned. Defaults to 0."
// @Param			limit		query	int		false	"Maximum number of allocations to return. Defaults to 50."
func GetBudgetAllocations(c *gin.Context) {
	var filter BudgetAllocationQueryFilter
	if err := c.Bind(&filter); err != nil {
		e := err.Error()
		c.JSON(http.StatusBadRequest, BudgetAllocationListResponse{
			Error: &e,
		})
		return
	}

	// Get the fields that we are filtering for
	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	model := filter.model()

	q := models.DB.
		Order("datetime(created_at) ASC").
		Where(&model, queryFields...)

	// Set the offset. Does not need checking since the default is 0
	q = q.Offset(int(filter.Offset))

	// Default to 50 allocations and set the limit
	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var allocations []models.BudgetAllocation
	err := q.Find(&allocations).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BudgetAllocationListResponse{
			Error: &e,
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BudgetAllocationListResponse{
			Error: &e,
		})
		return
	}

	data := make([]BudgetAllocation, 0, len(allocations))
	for _, allocation := range allocations {
		data = append(data, newBudgetAllocation(c, allocation))
	}

	c.JSON(http.StatusOK, BudgetAllocationListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Get budget allocation
// @Description	Returns a specific budget allocation
// @Tags			Budget
// @Produce		json
// @Success		200	{object}	BudgetAllocationResponse
// @Failure		400	{object}	BudgetAllocationResponse
// @Failure		404	{object}	BudgetAllocationResponse
// @Failure		500	{object}	BudgetAllocationResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/budget/allocations/{id} [get]
func GetBudgetAllocation(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BudgetAllocationResponse{
			Error: &e,
		})
		return
	}

	var allocation models.BudgetAllocation
	err = models.DB.First(&allocation, "id = ?", uri.ID.UUID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BudgetAllocationResponse{
			Error: &e,
		})
		return
	}

	data := newBudgetAllocation(c, allocation)
	c.JSON(http.StatusOK, BudgetAllocationResponse{Data: &data})
}

// @Summary		Update budget allocation
// @Description	Updates an existing budget allocation. Only values to be updated need to be specified.
// @Tags			Budget
// @Accept			json
// @Produce		json
// @Success		200			{object}	BudgetAllocationResponse
// @Failure		400			{object}	BudgetAllocationResponse
// @Failure		404			{object}	BudgetAllocationResponse
// @Failure		409			{object}	BudgetAllocationResponse
// @Failure		500			{object}	BudgetAllocationResponse
// @Param			id			path		URIID						true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			allocation	body		BudgetAllocationEditable	true	"Budget allocation"
// @Router			/v1/budget/allocations/{id} [patch]
func UpdateBudgetAllocation(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BudgetAllocationResponse{
			Error: &e,
		})
		return
	}

	var allocation models.BudgetAllocation
	err = models.DB.First(&allocation, "id = ?", uri.ID.UUID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BudgetAllocationResponse{
			Error: &e,
		})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, BudgetAllocationEditable{})
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BudgetAllocationResponse{
			Error: &e,
		})
		return
	}

	var data BudgetAllocationEditable
	err = httputil.BindData(c, &data)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BudgetAllocationResponse{
			Error: &e,
		})
		return
	}

	// Merge the set fields onto the loaded allocation so that the hooks
	// validate the full resulting resource, scope uniqueness included
	if fieldSet(updateFields, "BudgetPeriodID") {
		allocation.BudgetPeriodID = data.BudgetPeriodID
	}
	if fieldSet(updateFields, "MinistryID") {
		allocation.MinistryID = data.MinistryID
	}
	if fieldSet(updateFields, "CategoryID") {
		allocation.CategoryID = data.CategoryID
	}
	if fieldSet(updateFields, "Amount") {
		allocation.Amount = data.Amount
	}

	err = models.DB.Save(&allocation).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BudgetAllocationResponse{
			Error: &e,
		})
		return
	}

	r := newBudgetAllocation(c, allocation)
	c.JSON(http.StatusOK, BudgetAllocationResponse{Data: &r})
}

// @Summary		Delete budget allocation
// @Description	Deletes a budget allocation
// @Tags			Budget
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/budget/allocations/{id} [delete]
func DeleteBudgetAllocation(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	var allocation models.BudgetAllocation
	err = models.DB.First(&allocation, "id = ?", uri.ID.UUID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.Delete(&allocation).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Budget
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/budget/execution/{id} [options]
func OptionsBudgetExecution(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.First(&models.BudgetPeriod{}, "id = ?", uri.ID.UUID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	httputil.OptionsGet(c)
}

// @Summary		Get budget execution
// @Description	Returns the budget execution report for a period: how much of each allocation is spent and what remains
// @Tags			Budget
// @Produce		json
// @Success		200	{object}	BudgetExecutionResponse
// @Failure		400	{object}	BudgetExecutionResponse
// @Failure		404	{object}	BudgetExecutionResponse
// @Failure		500	{object}	BudgetExecutionResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/budget/execution/{id} [get]
func GetBudgetExecution(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BudgetExecutionResponse{
			Error: &e,
		})
		return
	}

	execution, err := budget.Compute(models.DB, uri.ID.UUID)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BudgetExecutionResponse{
			Error: &e,
		})
		return
	}

	data := newBudgetExecution(c, execution)
	c.JSON(http.StatusOK, BudgetExecutionResponse{Data: &data})
}
